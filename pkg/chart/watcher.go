package chart

import (
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the default debounce interval for file watch events.
const DefaultWatchDebounce = 500 * time.Millisecond

// fileWatcher reports changes to a set of files. Events arriving within
// the debounce interval are delivered together.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(paths []string)
	onError  func(error)

	mu    sync.Mutex
	files map[string]bool // absolute paths
	dirs  map[string]bool

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
}

// newFileWatcher creates a watcher for paths. onChange receives the
// absolute paths that changed since the last delivery.
func newFileWatcher(paths []string, debounce time.Duration, onChange func([]string), onError func(error)) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	fw := &fileWatcher{
		watcher:   w,
		debounce:  debounce,
		onChange:  onChange,
		onError:   onError,
		files:     make(map[string]bool),
		dirs:      make(map[string]bool),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	if err := fw.SetFiles(paths); err != nil {
		w.Close()
		return nil, err
	}
	return fw, nil
}

// SetFiles replaces the watched set. Directories are watched rather than
// files so editors that save by renaming are seen.
func (fw *fileWatcher) SetFiles(paths []string) error {
	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	for dir := range dirs {
		if fw.dirs[dir] {
			continue
		}
		if err := fw.watcher.Add(dir); err != nil {
			return err
		}
	}
	for dir := range fw.dirs {
		if !dirs[dir] {
			_ = fw.watcher.Remove(dir)
		}
	}
	fw.files = files
	fw.dirs = dirs
	return nil
}

// Files returns the watched absolute paths, sorted.
func (fw *fileWatcher) Files() []string {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return slices.Sorted(maps.Keys(fw.files))
}

func (fw *fileWatcher) watched(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.files[abs]
}

// Start begins watching for file changes in a goroutine.
func (fw *fileWatcher) Start() {
	go fw.watchLoop()
}

// Stop stops the watcher and waits for its goroutine. Safe to call
// more than once.
func (fw *fileWatcher) Stop() {
	fw.stopOnce.Do(func() {
		close(fw.stopCh)
		<-fw.stoppedCh
	})
}

func (fw *fileWatcher) watchLoop() {
	defer close(fw.stoppedCh)
	defer fw.watcher.Close()

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time
	changed := make(map[string]bool)

	for {
		select {
		case <-fw.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !fw.watched(event.Name) {
				continue
			}
			abs, _ := filepath.Abs(event.Name)
			changed[abs] = true
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(fw.debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			paths := slices.Sorted(maps.Keys(changed))
			clear(changed)
			debounceTimer = nil
			debounceCh = nil
			if fw.onChange != nil {
				fw.onChange(paths)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			if fw.onError != nil {
				fw.onError(err)
			}
		}
	}
}
