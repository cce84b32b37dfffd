package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watcher ingests documents dropped into the library directory. The
// library is laid out as one subdirectory per subject id, so
// library/3/mitchell.pdf lands in subject 3.
type Watcher struct {
	ingestor *Ingestor
	root     string
}

func NewWatcher(ingestor *Ingestor, libraryRoot string) *Watcher {
	return &Watcher{ingestor: ingestor, root: libraryRoot}
}

// Run watches the library until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating library watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(w.root); err != nil {
		return errors.Wrapf(err, "watching %s", w.root)
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return errors.Wrapf(err, "listing %s", w.root)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := watcher.Add(filepath.Join(w.root, entry.Name())); err != nil {
				return errors.Wrapf(err, "watching %s", entry.Name())
			}
		}
	}

	w.ingestor.log.Infof("watching library at %s", w.root)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.ingestor.log.Warnf("library watcher: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		// A new subject directory appeared, start watching it.
		if event.Has(fsnotify.Create) {
			if err := watcher.Add(event.Name); err != nil {
				w.ingestor.log.Warnf("watching %s: %v", event.Name, err)
			}
		}
		return
	}
	if !SupportedExtension(event.Name) {
		return
	}

	subjectID, ok := w.subjectFor(event.Name)
	if !ok {
		w.ingestor.log.Debugf("ignoring %s, not inside a subject directory", event.Name)
		return
	}
	if _, err := w.ingestor.IngestFile(ctx, subjectID, event.Name, "", ""); err != nil {
		w.ingestor.log.Errorf("ingesting %s: %v", event.Name, err)
	}
}

// subjectFor maps a file path to the subject id encoded in its parent
// directory name.
func (w *Watcher) subjectFor(path string) (int64, bool) {
	parent := filepath.Base(filepath.Dir(path))
	subjectID, err := strconv.ParseInt(parent, 10, 64)
	if err != nil || subjectID <= 0 {
		return 0, false
	}
	return subjectID, true
}
