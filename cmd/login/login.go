package login

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sidkik/docsync/cmd/util"
	"github.com/sidkik/docsync/pkg/errors"
)

// New creates a new `login` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to the remote service",
		Long: "Log in to the remote service, and cache the session so that\n" +
			"later commands don't have to log in again.",
		Args: cobra.NoArgs,
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

	ctx, cancel := util.SignalContext()
	defer cancel()

	result, err := orchestrator.Login(ctx)
	if err != nil {
		return errors.WithContext(err, "login")
	}

	if result.AlreadyLoggedIn {
		fmt.Printf("Already logged in as %s.\n"+
			"Run `docsync logout` first to log in as someone else.\n",
			result.Session.Account)
		return nil
	}

	util.PrintSuccess(os.Stdout, "Logged in as %s. The session expires on %s.",
		result.Session.Account, result.Session.Expiry().Local().Format(time.RFC1123))
	return nil
}
