// Package sync implements the operations that move a project between the
// remote service and the local filesystem. Each operation is independent: the
// only state shared between invocations is what's on disk.
package sync

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/docsync/pkg/archive"
	"github.com/sidkik/docsync/pkg/backup"
	"github.com/sidkik/docsync/pkg/errors"
	"github.com/sidkik/docsync/pkg/login"
	"github.com/sidkik/docsync/pkg/remote"
	"github.com/sidkik/docsync/pkg/repository"
	"github.com/sidkik/docsync/pkg/session"
)

// Orchestrator runs the clone, push and pull operations against a single
// working directory.
type Orchestrator struct {
	Log     logrus.FieldLogger
	Fs      afero.Fs
	Clock   clockwork.Clock
	Store   session.Store
	Agent   login.Agent
	Client  remote.Client
	Repo    repository.Repository
	Backups backup.Manager

	// LoginTimeout bounds how long the login agent may take.
	LoginTimeout time.Duration

	// DisableBackup skips the backup before every pull.
	DisableBackup bool
}

// ProjectSelector identifies a remote project by exactly one of its name or
// id.
type ProjectSelector struct {
	Name string
	ID   string
}

func (selector ProjectSelector) String() string {
	if selector.ID != "" {
		return selector.ID
	}
	return selector.Name
}

// LoginResult describes the outcome of Login.
type LoginResult struct {
	Session session.Bundle

	// AlreadyLoggedIn is true if a valid cached session was reused.
	AlreadyLoggedIn bool
}

// PullResult describes the outcome of Pull.
type PullResult struct {
	Root string

	// BackupDir is the backup taken before the pull. It's empty if backups
	// were disabled, or if there was nothing to back up.
	BackupDir string
}

// ResolveSession returns the cached session if it's still valid. Otherwise,
// it runs the login agent and caches the new session before returning it.
func (o Orchestrator) ResolveSession(ctx context.Context) (session.Bundle, error) {
	if bundle, ok := o.Store.Load(); ok {
		o.Log.WithField("account", bundle.Account).Debug("Using cached session")
		return bundle, nil
	}

	o.Log.Info("No valid session found. Logging in")
	bundle, err := login.WithTimeout(ctx, o.Agent, o.Clock, o.LoginTimeout)
	if err != nil {
		return session.Bundle{}, err
	}

	if !bundle.Valid(o.Clock.Now()) {
		return session.Bundle{}, errors.AuthError{
			Err: errors.New("login produced a session that expired at %s",
				bundle.Expiry().Format(time.RFC3339)),
		}
	}

	// Save before doing anything else so that a later failure doesn't force
	// the user to log in again.
	o.Log.WithField("path", o.Store.Path()).Info("Saving session information to cache")
	if err := o.Store.Save(bundle); err != nil {
		return session.Bundle{}, errors.WithContext(err, "save session")
	}
	return bundle, nil
}

// Login makes sure that there's a valid cached session.
func (o Orchestrator) Login(ctx context.Context) (LoginResult, error) {
	if bundle, ok := o.Store.Load(); ok {
		return LoginResult{Session: bundle, AlreadyLoggedIn: true}, nil
	}

	bundle, err := o.ResolveSession(ctx)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Session: bundle}, nil
}

// Logout deletes the cached session, and returns the account it belonged to.
// The account is empty if the cached session had already expired.
func (o Orchestrator) Logout() (string, error) {
	bundle, _ := o.Store.Load()
	if err := o.Store.Clear(); err != nil {
		return "", err
	}
	return bundle.Account, nil
}

// WhoAmI returns the cached session, if there's a valid one.
func (o Orchestrator) WhoAmI() (session.Bundle, bool) {
	return o.Store.Load()
}

// Clone creates a new repository for the selected project in the working
// directory, and populates it with the project's contents. It returns the
// path to the new project root.
//
// Clone isn't atomic: if the download fails, the newly created repository is
// left in place.
func (o Orchestrator) Clone(ctx context.Context, selector ProjectSelector) (string, error) {
	if markerDir, ok := o.Repo.FindMarkerDir(); ok {
		return "", errors.AlreadyInitialized{MarkerDir: markerDir}
	}

	if (selector.Name == "") == (selector.ID == "") {
		return "", errors.NewFriendlyError("Exactly one of the project name or id must be specified.")
	}

	sess, err := o.ResolveSession(ctx)
	if err != nil {
		return "", err
	}

	o.Log.WithField("project", selector.String()).Info("Fetching project information")
	var project remote.Project
	if selector.ID != "" {
		project, err = o.Client.FindProjectByID(ctx, sess, selector.ID)
	} else {
		project, err = o.Client.FindProjectByName(ctx, sess, selector.Name)
	}
	if err != nil {
		return "", errors.WithContext(err, "find project")
	}

	root, err := o.Repo.Init(project)
	if err != nil {
		return "", errors.WithContext(err, "init repository")
	}

	if err := o.download(ctx, sess, project, root); err != nil {
		return root, errors.WithContext(err, "populate repository")
	}
	return root, nil
}

// Push uploads `files` to the root folder of the remote project. The files
// are relative to the project root, and must be directly within it.
//
// Files are uploaded one at a time, in order. Push stops at the first
// failure, and files that were already uploaded stay uploaded.
func (o Orchestrator) Push(ctx context.Context, files []string) error {
	root, err := o.Repo.ProjectRoot()
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return errors.NewFriendlyError("No files to push.")
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		name, err := rootLevelName(file)
		if err != nil {
			return err
		}
		names = append(names, name)
	}

	sess, err := o.ResolveSession(ctx)
	if err != nil {
		return err
	}

	identity, err := o.Repo.ProjectIdentity()
	if err != nil {
		return err
	}

	// The local copy of the id may be stale, so look the project up again.
	o.Log.WithField("project", identity.Name).Info("Fetching project information")
	project, err := o.Client.FindProjectByName(ctx, sess, identity.Name)
	if err != nil {
		return errors.WithContext(err, "find project")
	}

	detail, err := o.Client.FetchProjectDetail(ctx, sess, project.ID)
	if err != nil {
		return errors.WithContext(err, "fetch project detail")
	}

	for _, name := range names {
		contents, err := afero.ReadFile(o.Fs, filepath.Join(root, name))
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("read %s", name))
		}

		err = o.Client.UploadFile(ctx, sess, project.ID, detail.RootFolderID, name, contents)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("push %s", name))
		}
		o.Log.WithField("file", name).Info("Pushed file")
	}
	return nil
}

// PushOnChange pushes `files` every time `changes` fires, until the context is
// cancelled or `changes` is closed. Failed pushes are logged and retried on
// the next change.
func (o Orchestrator) PushOnChange(ctx context.Context, files []string, changes <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}

			if err := o.Push(ctx, files); err != nil {
				if ctx.Err() != nil {
					return nil
				}

				var authErr errors.AuthError
				if errors.As(err, &authErr) {
					return err
				}
				o.Log.WithError(err).Warn("Failed to push changes. Will retry on the next change")
			}
		}
	}
}

// Pull replaces the contents of the project root with the remote project.
// Unless backups are disabled, the current contents are backed up first.
//
// If clearing the project root or the download fails, the returned error is
// an errors.PullIncomplete that references the backup.
func (o Orchestrator) Pull(ctx context.Context, noBackup bool) (PullResult, error) {
	root, err := o.Repo.ProjectRoot()
	if err != nil {
		return PullResult{}, err
	}

	sess, err := o.ResolveSession(ctx)
	if err != nil {
		return PullResult{}, err
	}

	project, err := o.Repo.ProjectIdentity()
	if err != nil {
		return PullResult{}, err
	}

	result := PullResult{Root: root}
	if noBackup || o.DisableBackup {
		o.Log.Info("Skipping backup")
	} else {
		result.BackupDir, err = o.Backups.Create()
		if err != nil {
			return PullResult{}, errors.WithContext(err, "create backup")
		}

		if result.BackupDir != "" {
			o.Log.WithField("path", result.BackupDir).Info("Backed up local project")
		}
	}

	if err := o.Repo.Wipe(); err != nil {
		return PullResult{}, errors.PullIncomplete{
			BackupDir: result.BackupDir,
			Err:       errors.WithContext(err, "clear project root"),
		}
	}

	if err := o.download(ctx, sess, project, root); err != nil {
		return PullResult{}, errors.PullIncomplete{BackupDir: result.BackupDir, Err: err}
	}
	return result, nil
}

func (o Orchestrator) download(ctx context.Context, sess session.Bundle,
	project remote.Project, root string) error {
	o.Log.WithField("dir", root).Info("Downloading project")
	contents, err := o.Client.DownloadArchive(ctx, sess, project.ID)
	if err != nil {
		return errors.WithContext(err, "download")
	}

	if err := archive.Extract(o.Fs, contents, root); err != nil {
		return errors.WithContext(err, "extract")
	}
	return nil
}

// rootLevelName returns the name of `file` if it's directly within the
// project root.
func rootLevelName(file string) (string, error) {
	name := filepath.Clean(file)
	if name == "." || name == ".." || filepath.IsAbs(name) ||
		strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") {
		return "", errors.NewFriendlyError("Can't push %q: only files directly in "+
			"the project root can be pushed.", file)
	}

	if name == repository.MarkerDirName {
		return "", errors.NewFriendlyError("Can't push the %s directory.", name)
	}
	return name, nil
}
