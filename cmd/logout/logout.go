package logout

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidkik/docsync/cmd/util"
)

// New creates a new `logout` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the cached session",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	orchestrator, err := util.NewOrchestrator()
	if err != nil {
		return err
	}

	account, err := orchestrator.Logout()
	if err != nil {
		return err
	}

	if account == "" {
		fmt.Println("Logged out.")
	} else {
		fmt.Printf("Logged out of %s.\n", account)
	}
	return nil
}
