package fswatch

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/docsync/pkg/errors"
)

var fs = afero.NewOsFs()

// Watcher reports changes to a fixed set of files.
type Watcher struct {
	watcher *fsnotify.Watcher

	// Changes receives an event whenever at least one of the watched files
	// changed since the last receive.
	Changes <-chan struct{}
}

// Watch watches for changes to `files`, which are relative to `dir`.
//
// The directory is watched rather than the files themselves. Editors often
// save by replacing the file, which would otherwise silently end the watch.
func Watch(dir string, files []string) (*Watcher, error) {
	names, err := getNamesToWatch(dir, files)
	if err != nil {
		return nil, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	if err := watcher.Add(dir); err != nil {
		if err := watcher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file watcher")
		}
		return nil, errors.WithContext(err, "watch "+dir)
	}

	go logErrors(watcher.Errors)
	return &Watcher{
		watcher: watcher,
		Changes: combineUpdates(filterEvents(watcher.Events, names)),
	}, nil
}

// Close stops the watch and releases the underlying file handles.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func getNamesToWatch(dir string, files []string) (map[string]struct{}, error) {
	names := map[string]struct{}{}
	for _, file := range files {
		path := filepath.Join(dir, file)
		fi, err := fs.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.FileNotFound{Path: path}
			}
			return nil, errors.WithContext(err, "stat")
		}

		if fi.IsDir() {
			return nil, errors.NewFriendlyError("Can't watch %s: it's a directory.", path)
		}
		names[filepath.Base(path)] = struct{}{}
	}
	return names, nil
}

// filterEvents drops events for files that aren't in `names`, and events that
// don't change file contents.
func filterEvents(events <-chan fsnotify.Event, names map[string]struct{}) <-chan fsnotify.Event {
	filtered := make(chan fsnotify.Event)
	go func() {
		defer close(filtered)
		for event := range events {
			if _, ok := names[filepath.Base(event.Name)]; !ok {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			filtered <- event
		}
	}()
	return filtered
}

func combineUpdates(updates <-chan fsnotify.Event) <-chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		defer close(combined)
		for range updates {
			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

func logErrors(errs <-chan error) {
	for err := range errs {
		log.WithError(err).Warn("File watcher error")
	}
}
