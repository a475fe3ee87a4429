package cache

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"idctl/pkg/logging"
)

// Watcher observes the store's directory so a long-running process notices
// tokens written or removed by another process (for example "idctl auth
// login" run in a second terminal). On any change the in-memory entry is
// dropped and the next Get re-reads the file.
type Watcher struct {
	fsw     *fsnotify.Watcher
	store   *Store
	done    chan struct{}
	changes chan struct{}
}

// WatchStore starts watching the store's directory. It fails when the store
// has no file persistence, since there is nothing to watch.
func WatchStore(store *Store) (*Watcher, error) {
	if !store.fileMode {
		return nil, fmt.Errorf("token cache watcher requires file persistence")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create cache watcher: %w", err)
	}
	if err := fsw.Add(store.storageDir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", store.storageDir, err)
	}

	w := &Watcher{
		fsw:     fsw,
		store:   store,
		done:    make(chan struct{}),
		changes: make(chan struct{}, 1),
	}
	go w.loop()
	return w, nil
}

// Changes signals after each cache file change. The channel carries no
// payload and coalesces bursts; it is closed when the watcher stops.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.changes)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			fileKey := strings.TrimSuffix(filepath.Base(event.Name), ".json")
			w.store.evict(fileKey)
			logging.Debug("TokenCache", "Cache file %s changed externally, dropping in-memory entry", filepath.Base(event.Name))
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn("TokenCache", "Cache watcher error: %v", err)
		}
	}
}

// Close stops the watcher and waits for its loop to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

// evict drops an in-memory entry by file key, forcing the next Get to read
// from disk.
func (s *Store) evict(fileKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, fileKey)
}
