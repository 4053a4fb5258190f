package clone

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/docsync/cmd/util"
	"github.com/sidkik/docsync/pkg/errors"
	"github.com/sidkik/docsync/pkg/sync"
)

// New creates a new `clone` command.
func New() *cobra.Command {
	var selector sync.ProjectSelector
	var force bool
	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Clone a remote project into a new directory",
		Long: "Clone a remote project into a new directory named after the project.\n" +
			"The project is selected by exactly one of --name or --id.",
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(selector, force); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVarP(&selector.Name, "name", "n", "", "The name of the project.")
	cmd.Flags().StringVarP(&selector.ID, "id", "i", "", "The id of the project.")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Don't ask for confirmation.")
	cmd.MarkFlagsMutuallyExclusive("name", "id")
	cmd.MarkFlagsOneRequired("name", "id")
	return cmd
}

func run(selector sync.ProjectSelector, force bool) error {
	orchestrator, err := util.NewOrchestrator()
	if err != nil {
		return err
	}

	if markerDir, ok := orchestrator.Repo.FindMarkerDir(); ok {
		return errors.AlreadyInitialized{MarkerDir: markerDir}
	}

	if !force {
		ok, err := util.PromptYesOrNo(fmt.Sprintf("Clone %s into the current directory?", selector))
		if err != nil {
			return errors.WithContext(err, "prompt")
		}

		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	ctx, cancel := util.SignalContext()
	defer cancel()

	// Log in before showing progress so that the login prompt isn't
	// interrupted.
	if _, err := orchestrator.ResolveSession(ctx); err != nil {
		return errors.WithContext(err, "log in")
	}

	pp := util.NewProgressPrinter(os.Stdout, "Cloning "+selector.String())
	go pp.Run()
	root, err := orchestrator.Clone(ctx, selector)
	pp.StopWithPrint(util.ClearProgress)
	if err != nil {
		if root != "" {
			util.PrintFailure(os.Stdout, "The repository at %s was created, but "+
				"it may be incomplete. Remove it before cloning again.", root)
		}
		return errors.WithContext(err, "clone")
	}

	util.PrintSuccess(os.Stdout, "Cloned %s into %s.", selector, root)
	return nil
}
