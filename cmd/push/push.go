package push

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sidkik/docsync/cmd/util"
	"github.com/sidkik/docsync/pkg/errors"
	"github.com/sidkik/docsync/pkg/fswatch"
)

// New creates a new `push` command.
func New() *cobra.Command {
	var force, watch bool
	cmd := &cobra.Command{
		Use:   "push FILE...",
		Short: "Upload local files to the remote project",
		Long: "Upload local files to the remote project, replacing the remote\n" +
			"versions. Paths are relative to the project root, and only files\n" +
			"directly in the project root can be pushed.\n\n" +
			"With --watch, the files are pushed again every time they change,\n" +
			"until interrupted.",
		Args: cobra.MinimumNArgs(1),
		Run: func(_ *cobra.Command, files []string) {
			if err := run(files, force, watch); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Don't ask for confirmation.")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep pushing the files whenever they change.")
	return cmd
}

func run(files []string, force, watch bool) error {
	orchestrator, err := util.NewOrchestrator()
	if err != nil {
		return err
	}

	root, err := orchestrator.Repo.ProjectRoot()
	if err != nil {
		return err
	}

	if !force {
		ok, err := util.PromptYesOrNo(fmt.Sprintf("Push %s? The remote versions "+
			"will be overwritten.", strings.Join(files, ", ")))
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

	if err := orchestrator.Push(ctx, files); err != nil {
		return errors.WithContext(err, "push")
	}

	util.PrintSuccess(os.Stdout, "Pushed %d file(s).", len(files))
	if !watch {
		return nil
	}

	watcher, err := fswatch.Watch(root, files)
	if err != nil {
		return errors.WithContext(err, "watch files")
	}
	defer watcher.Close()

	fmt.Println("Watching for changes. Press Ctrl-C to stop.")
	if err := orchestrator.PushOnChange(ctx, files, watcher.Changes); err != nil {
		return errors.WithContext(err, "push")
	}
	return nil
}
