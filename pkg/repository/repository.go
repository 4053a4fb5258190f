// Package repository manages the marker directory that ties a local directory
// to a remote project. The marker lives at the top of the project directory,
// and is found by searching upwards from the working directory, similar to
// how git finds `.git`.
package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/docsync/pkg/errors"
	"github.com/sidkik/docsync/pkg/remote"
)

const (
	// MarkerDirName is the name of the directory that marks a repository.
	MarkerDirName = ".docsync"

	// identityFileName is the file within the marker directory that contains
	// the remote project's identity.
	identityFileName = "project.json"
)

// Repository is the local state of a cloned project, as seen from a working
// directory.
type Repository struct {
	fs  afero.Fs
	cwd string
}

// New returns a Repository that resolves paths relative to `cwd`.
func New(fs afero.Fs, cwd string) Repository {
	return Repository{fs: fs, cwd: filepath.Clean(cwd)}
}

// FindMarkerDir searches the working directory and each of its parents for
// a marker directory. It returns false if the filesystem root is reached
// without finding one.
func (repo Repository) FindMarkerDir() (string, bool) {
	dir := repo.cwd
	for {
		candidate := filepath.Join(dir, MarkerDirName)
		if fi, err := repo.fs.Stat(candidate); err == nil && fi.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// IsRepository returns whether the working directory is inside a repository.
func (repo Repository) IsRepository() bool {
	_, ok := repo.FindMarkerDir()
	return ok
}

// Init creates a repository for `project` in a new directory named after the
// project, and returns the path to the new project root. Nothing is created
// if the working directory is already inside a repository, or if the project
// directory already exists.
func (repo Repository) Init(project remote.Project) (string, error) {
	if markerDir, ok := repo.FindMarkerDir(); ok {
		return "", errors.AlreadyInitialized{MarkerDir: markerDir}
	}

	if !isValidDirName(project.Name) {
		return "", errors.NewFriendlyError("The project name %q can't be "+
			"used as a directory name.", project.Name)
	}

	root := filepath.Join(repo.cwd, project.Name)
	if _, err := repo.fs.Stat(root); err == nil {
		return "", errors.TargetExists{Path: root}
	} else if !os.IsNotExist(err) {
		return "", errors.WithContext(err, "stat project directory")
	}

	identity, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return "", errors.WithContext(err, "marshal project identity")
	}

	markerDir := filepath.Join(root, MarkerDirName)
	if err := repo.fs.MkdirAll(markerDir, 0755); err != nil {
		repo.removeFailedInit(root)
		return "", errors.WithContext(err, "create marker directory")
	}

	identityPath := filepath.Join(markerDir, identityFileName)
	if err := afero.WriteFile(repo.fs, identityPath, identity, 0644); err != nil {
		repo.removeFailedInit(root)
		return "", errors.WithContext(err, "write project identity")
	}
	return root, nil
}

// removeFailedInit removes the project directory created by a failed Init.
func (repo Repository) removeFailedInit(root string) {
	if err := repo.fs.RemoveAll(root); err != nil {
		log.WithError(err).WithField("path", root).Warn(
			"Failed to clean up project directory")
	}
}

// ProjectIdentity returns the remote project that the repository was cloned
// from.
func (repo Repository) ProjectIdentity() (remote.Project, error) {
	markerDir, ok := repo.FindMarkerDir()
	if !ok {
		return remote.Project{}, errors.NotARepository{Dir: repo.cwd}
	}

	path := filepath.Join(markerDir, identityFileName)
	contents, err := afero.ReadFile(repo.fs, path)
	if err != nil {
		return remote.Project{}, errors.CorruptState{Path: path, Err: err}
	}

	var project remote.Project
	if err := json.Unmarshal(contents, &project); err != nil {
		return remote.Project{}, errors.CorruptState{Path: path, Err: err}
	}

	if project.ID == "" || project.Name == "" {
		return remote.Project{}, errors.CorruptState{
			Path: path,
			Err:  errors.New("project identity is missing its id or name"),
		}
	}
	return project, nil
}

// ProjectRoot returns the directory containing the marker directory.
func (repo Repository) ProjectRoot() (string, error) {
	markerDir, ok := repo.FindMarkerDir()
	if !ok {
		return "", errors.NotARepository{Dir: repo.cwd}
	}
	return filepath.Dir(markerDir), nil
}

// Wipe removes everything in the project root except the marker directory.
func (repo Repository) Wipe() error {
	root, err := repo.ProjectRoot()
	if err != nil {
		return err
	}

	entries, err := afero.ReadDir(repo.fs, root)
	if err != nil {
		return errors.WithContext(err, "list project root")
	}

	for _, entry := range entries {
		if entry.Name() == MarkerDirName {
			continue
		}

		if err := repo.fs.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
			return errors.WithContext(err, "remove "+entry.Name())
		}
	}
	return nil
}

func isValidDirName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}
