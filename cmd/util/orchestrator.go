package util

import (
	"os"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/docsync/pkg/backup"
	"github.com/sidkik/docsync/pkg/config"
	"github.com/sidkik/docsync/pkg/errors"
	"github.com/sidkik/docsync/pkg/login"
	"github.com/sidkik/docsync/pkg/remote"
	"github.com/sidkik/docsync/pkg/repository"
	"github.com/sidkik/docsync/pkg/session"
	"github.com/sidkik/docsync/pkg/sync"
)

// NewOrchestrator creates an Orchestrator for the current working directory,
// configured according to the user's config.
func NewOrchestrator() (sync.Orchestrator, error) {
	cfg, err := config.ParseUser()
	if err != nil {
		return sync.Orchestrator{}, errors.WithContext(err, "parse user config")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return sync.Orchestrator{}, errors.WithContext(err, "get working directory")
	}

	client, err := remote.New(cfg.BaseURL)
	if err != nil {
		return sync.Orchestrator{}, errors.WithContext(err, "create remote client")
	}

	fs := afero.NewOsFs()
	clock := clockwork.NewRealClock()
	repo := repository.New(fs, cwd)
	return sync.Orchestrator{
		Log:           log.StandardLogger(),
		Fs:            fs,
		Clock:         clock,
		Store:         session.NewStore(fs, cfg.SessionFile, clock),
		Agent:         login.NewTerminalAgent(client, clock, cfg.SessionLifetime.Duration),
		Client:        client,
		Repo:          repo,
		Backups:       backup.New(fs, repo, clock),
		LoginTimeout:  cfg.LoginTimeout.Duration,
		DisableBackup: cfg.DisableBackup,
	}, nil
}
