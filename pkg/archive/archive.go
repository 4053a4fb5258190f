// Package archive extracts the zip archives that the remote service produces
// for project downloads.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/docsync/pkg/errors"
)

const defaultFileMode = 0644

// Extract unpacks the zip archive in `data` into `targetDir`, overwriting any
// files that already exist. If every entry in the archive is within a single
// top-level directory, that directory is stripped.
func Extract(fs afero.Fs, data []byte, targetDir string) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return errors.WithContext(err, "read zip")
	}

	if err := fs.MkdirAll(targetDir, 0755); err != nil {
		return errors.WithContext(err, "create target directory")
	}

	prefix := topLevelDir(reader.File)
	for _, f := range reader.File {
		name := strings.TrimPrefix(f.Name, prefix)
		if name == "" {
			continue
		}

		target, err := targetPath(targetDir, name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := fs.MkdirAll(target, 0755); err != nil {
				return errors.WithContext(err, fmt.Sprintf("create %s", name))
			}
			continue
		}

		if err := extractFile(fs, f, target); err != nil {
			return errors.WithContext(err, fmt.Sprintf("extract %s", name))
		}
	}

	log.WithField("files", len(reader.File)).WithField("dir", targetDir).
		Debug("Extracted archive")
	return nil
}

func extractFile(fs afero.Fs, f *zip.File, target string) error {
	if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.WithContext(err, "create parent directory")
	}

	in, err := f.Open()
	if err != nil {
		return errors.WithContext(err, "open")
	}
	defer in.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = defaultFileMode
	}

	out, err := fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return errors.WithContext(err, "create")
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.WithContext(err, "write")
	}
	return out.Close()
}

// targetPath returns where the entry `name` should be written. It rejects
// entries that would escape the target directory.
func targetPath(targetDir, name string) (string, error) {
	if filepath.IsAbs(filepath.FromSlash(name)) || strings.HasPrefix(name, "/") {
		return "", errors.New("archive entry %q has an absolute path", name)
	}

	targetDir = filepath.Clean(targetDir)
	target := filepath.Join(targetDir, filepath.FromSlash(name))
	if target != targetDir && !strings.HasPrefix(target, targetDir+string(filepath.Separator)) {
		return "", errors.New("archive entry %q is outside the target directory", name)
	}
	return target, nil
}

// topLevelDir returns the directory prefix shared by every entry in the
// archive, such as "project/". It returns an empty string if the entries
// don't all share a single top-level directory.
func topLevelDir(files []*zip.File) string {
	var prefix string
	for _, f := range files {
		i := strings.Index(f.Name, "/")
		if i <= 0 {
			return ""
		}

		dir := f.Name[:i+1]
		if dir == "./" || dir == "../" {
			return ""
		}

		if prefix == "" {
			prefix = dir
		} else if prefix != dir {
			return ""
		}
	}
	return prefix
}
