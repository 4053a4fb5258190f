package whoami

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sidkik/docsync/cmd/util"
	"github.com/sidkik/docsync/pkg/session"
)

// New creates a new `whoami` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the account of the cached session",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			orchestrator, err := util.NewOrchestrator()
			if err != nil {
				util.HandleFatalError(err)
			}

			bundle, ok := orchestrator.WhoAmI()
			printStatus(os.Stdout, bundle, ok, time.Local)
		},
	}
}

func printStatus(out io.Writer, bundle session.Bundle, ok bool, loc *time.Location) {
	if !ok {
		fmt.Fprintln(out, "Not logged in.")
		return
	}

	account := bundle.Account
	if account == "" {
		account = "an unknown account"
	}
	fmt.Fprintf(out, "Logged in as %s.\nThe session expires on %s.\n",
		account, bundle.Expiry().In(loc).Format(time.RFC1123))
}
