package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/docsync/cmd/clone"
	configCmd "github.com/sidkik/docsync/cmd/config"
	"github.com/sidkik/docsync/cmd/login"
	"github.com/sidkik/docsync/cmd/logout"
	"github.com/sidkik/docsync/cmd/pull"
	"github.com/sidkik/docsync/cmd/push"
	"github.com/sidkik/docsync/cmd/util"
	"github.com/sidkik/docsync/cmd/version"
	"github.com/sidkik/docsync/cmd/whoami"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "DOCSYNC_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "docsync",
		Short:        "Synchronize a local directory with a hosted LaTeX project",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		clone.New(),
		configCmd.New(),
		login.New(),
		logout.New(),
		pull.New(),
		push.New(),
		version.New(),
		whoami.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
