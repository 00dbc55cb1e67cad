package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"remold-hq/remold/pkg/rules"
)

// defaultDebounce is the quiet period after a file event before an Event is
// emitted, collapsing editor save storms into one reload.
const defaultDebounce = 100 * time.Millisecond

// FileSource loads rules from a YAML file or directory on disk.
type FileSource struct {
	path     string
	logger   *slog.Logger
	debounce time.Duration
}

// NewFileSource creates a file-based rule source. The path can be a single
// file or a directory; directories load all .yaml and .yml files in name
// order.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:     path,
		logger:   logger,
		debounce: defaultDebounce,
	}
}

// Load loads and validates the rule list from the configured path.
func (s *FileSource) Load(ctx context.Context) ([]rules.Rule, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("stat rules path %q: %w", s.path, err)
	}

	var rs []rules.Rule
	if info.IsDir() {
		rs, err = rules.LoadDir(s.path)
	} else {
		rs, err = rules.LoadFile(s.path)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("loaded rules from source",
		"path", s.path,
		"rule_count", len(rs),
	)

	return rs, nil
}

// Watch watches the rules path with fsnotify and emits a debounced Event per
// change burst. The channel is closed when the context is cancelled.
func (s *FileSource) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the parent directory for single files so atomic rename saves
	// (write temp + rename) are still observed.
	watchPath := s.path
	if info, err := os.Stat(s.path); err == nil && !info.IsDir() {
		watchPath = filepath.Dir(s.path)
	}
	if err := watcher.Add(watchPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %q: %w", watchPath, err)
	}

	eventCh := make(chan Event)

	go func() {
		defer close(eventCh)
		defer watcher.Close()

		var (
			mu      sync.Mutex
			timer   *time.Timer
			pending string
		)
		defer func() {
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		}()

		fire := func() {
			mu.Lock()
			path := pending
			mu.Unlock()

			select {
			case eventCh <- Event{Path: path}:
			case <-ctx.Done():
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !s.relevant(ev) {
					continue
				}

				s.logger.Debug("rules file event", "path", ev.Name, "op", ev.Op.String())

				mu.Lock()
				pending = ev.Name
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(s.debounce, fire)
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Error("rules watcher error", "error", err)
				select {
				case eventCh <- Event{Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	s.logger.Info("rules watcher started", "path", watchPath)

	return eventCh, nil
}

// relevant filters watcher noise: chmods, non-YAML files, and, when watching
// the parent directory of a single rules file, unrelated siblings.
func (s *FileSource) relevant(ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}

	ext := strings.ToLower(filepath.Ext(ev.Name))
	if ext != ".yaml" && ext != ".yml" {
		return false
	}

	if info, err := os.Stat(s.path); err == nil && !info.IsDir() {
		return filepath.Clean(ev.Name) == filepath.Clean(s.path)
	}

	return true
}
