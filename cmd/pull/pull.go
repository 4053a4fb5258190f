package pull

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/docsync/cmd/util"
	"github.com/sidkik/docsync/pkg/errors"
)

// New creates a new `pull` command.
func New() *cobra.Command {
	var noBackup, force bool
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Replace the local project with the remote version",
		Long: "Replace the contents of the local project with the remote version.\n" +
			"Unless backups are disabled, the local contents are copied into the\n" +
			".docsync directory first.",
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(noBackup, force); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&noBackup, "no-backup", false,
		"Don't back up the local project before pulling.")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Don't ask for confirmation.")
	return cmd
}

func run(noBackup, force bool) error {
	orchestrator, err := util.NewOrchestrator()
	if err != nil {
		return err
	}

	root, err := orchestrator.Repo.ProjectRoot()
	if err != nil {
		return err
	}

	if !force {
		prompt := fmt.Sprintf("Replace the contents of %s with the remote project?", root)
		if noBackup || orchestrator.DisableBackup {
			prompt += " No backup will be taken."
		} else {
			prompt += " A backup will be taken first."
		}

		ok, err := util.PromptYesOrNo(prompt)
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

	if _, err := orchestrator.ResolveSession(ctx); err != nil {
		return errors.WithContext(err, "log in")
	}

	pp := util.NewProgressPrinter(os.Stdout, "Pulling project")
	go pp.Run()
	result, err := orchestrator.Pull(ctx, noBackup)
	pp.StopWithPrint(util.ClearProgress)
	if err != nil {
		return errors.WithContext(err, "pull")
	}

	if result.BackupDir != "" {
		fmt.Printf("Backed up the previous contents to %s.\n", result.BackupDir)
	}
	util.PrintSuccess(os.Stdout, "Pulled the remote project into %s.", result.Root)
	return nil
}
