// Package backup snapshots the contents of a project before they're
// overwritten by a pull.
package backup

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/docsync/pkg/errors"
	"github.com/sidkik/docsync/pkg/repository"
)

// Manager creates backups of a repository.
type Manager struct {
	fs    afero.Fs
	repo  repository.Repository
	clock clockwork.Clock
}

// New returns a Manager for the repository.
func New(fs afero.Fs, repo repository.Repository, clock clockwork.Clock) Manager {
	return Manager{fs: fs, repo: repo, clock: clock}
}

// DirName returns the name of the backup directory for a backup of project
// `name` taken at `unixMillis`.
func DirName(name string, unixMillis int64) string {
	return fmt.Sprintf("%s-%d.local.bak", name, unixMillis)
}

// Create copies every top-level entry of the project root, except the marker
// directory, into a new backup directory within the marker directory. The
// project root is never modified.
// It returns the path to the backup, or an empty string if the project root
// had nothing to back up.
func (m Manager) Create() (string, error) {
	root, err := m.repo.ProjectRoot()
	if err != nil {
		return "", err
	}
	markerDir := filepath.Join(root, repository.MarkerDirName)

	project, err := m.repo.ProjectIdentity()
	if err != nil {
		return "", err
	}

	entries, err := afero.ReadDir(m.fs, root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.WithContext(err, "list project root")
	}

	var toCopy []os.FileInfo
	for _, entry := range entries {
		if entry.Name() != repository.MarkerDirName {
			toCopy = append(toCopy, entry)
		}
	}

	if len(toCopy) == 0 {
		log.WithField("root", root).Debug("Nothing to back up")
		return "", nil
	}

	backupDir := filepath.Join(markerDir, DirName(project.Name, m.clock.Now().UnixMilli()))
	if err := m.fs.Mkdir(backupDir, 0755); err != nil {
		return "", errors.WithContext(err, "create backup directory")
	}

	for _, entry := range toCopy {
		src := filepath.Join(root, entry.Name())
		dst := filepath.Join(backupDir, entry.Name())
		if err := m.copyTree(src, dst); err != nil {
			return "", errors.WithContext(err, fmt.Sprintf("back up %s", entry.Name()))
		}
	}
	return backupDir, nil
}

// copyTree recursively copies `src` to `dst`.
func (m Manager) copyTree(src, dst string) error {
	return afero.Walk(m.fs, src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return errors.WithContext(err, "relative path")
		}
		target := filepath.Join(dst, relPath)

		if fi.IsDir() {
			return m.fs.MkdirAll(target, fi.Mode().Perm())
		}
		return m.copyFile(path, target, fi.Mode().Perm())
	})
}

// copyFile copies a single file, and checks that the copy's contents match
// the original.
func (m Manager) copyFile(src, dst string, mode os.FileMode) error {
	in, err := m.fs.Open(src)
	if err != nil {
		return errors.WithContext(err, "open")
	}
	defer in.Close()

	out, err := m.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return errors.WithContext(err, "create")
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.WithContext(err, "copy")
	}

	if err := out.Close(); err != nil {
		return errors.WithContext(err, "close")
	}

	srcHash, err := HashFile(m.fs, src)
	if err != nil {
		return err
	}

	dstHash, err := HashFile(m.fs, dst)
	if err != nil {
		return err
	}

	if srcHash != dstHash {
		return errors.New("copy of %s doesn't match the original", src)
	}
	return nil
}

// HashFile returns the sha512 hash of the file at the given path.
func HashFile(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", errors.WithContext(err, "open")
	}
	defer f.Close()

	hasher := sha512.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", errors.WithContext(err, "read")
	}

	return base64.StdEncoding.EncodeToString(hasher.Sum(nil)), nil
}
