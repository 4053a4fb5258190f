package version

import (
	"fmt"
	"io"
	"os"

	goVersion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/docsync/pkg/version"
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of docsync",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			printVersion(os.Stdout, version.Version)
		},
	}
}

func printVersion(out io.Writer, raw string) {
	fmt.Fprintf(out, "docsync version: %s\n", raw)
	if raw == version.EmptyValue {
		fmt.Fprintln(out, "This is a development build.")
		return
	}

	parsed, err := goVersion.NewVersion(raw)
	if err != nil {
		log.WithError(err).Debug("Failed to parse version")
		return
	}

	if parsed.Prerelease() != "" || parsed.Metadata() != "" {
		fmt.Fprintf(out, "This is a pre-release build of %s.\n", parsed.Core())
	}
}
