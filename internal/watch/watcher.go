package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lyxs/internal/errors"
	"lyxs/internal/log"

	"github.com/fsnotify/fsnotify"
)

// Change represents a bind file event detected by the watcher
type Change struct {
	Path      string
	Op        fsnotify.Op
	Timestamp time.Time
}

// Watcher monitors binding directory trees for bind file changes using fsnotify
type Watcher struct {
	// Directories being watched, including nested ones
	directories []string

	// Reports whether a path names a bind file
	match func(path string) bool

	// Channel to deliver changes
	changes chan Change

	// Channel to signal stop
	stopChan chan struct{}

	// fsnotify watcher instance
	fsWatcher *fsnotify.Watcher

	// Lock for running state and the directories list
	mutex sync.RWMutex

	// Whether the watcher is running
	running bool

	// Set once Stop has released the fsnotify watcher
	closed bool
}

// New creates a watcher that reports changes to files accepted by match
func New(match func(path string) bool) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	return &Watcher{
		directories: []string{},
		match:       match,
		changes:     make(chan Change, 16),
		fsWatcher:   fsWatcher,
	}, nil
}

// AddTree watches root and every directory below it. fsnotify is not
// recursive, so each directory is added on its own.
func (w *Watcher) AddTree(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileError("binding directory does not exist", root, errors.FileNotFound, err)
		}
		return errors.NewFileError("error accessing directory", root, errors.FileAccessDenied, err)
	}
	if !info.IsDir() {
		return errors.NewFileError("not a directory", root, errors.InvalidPath, nil)
	}
	// WalkDir does not descend into a root that is a symlink.
	if linfo, err := os.Lstat(root); err == nil && linfo.Mode()&os.ModeSymlink != 0 {
		target, err := filepath.EvalSymlinks(root)
		if err != nil {
			return errors.NewFileError("cannot resolve binding directory", root, errors.InvalidPath, err)
		}
		root = target
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.LogWithFields(log.F("path", path), log.F("error", err)).Warn("Skipping unreadable directory")
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return w.addDirectory(path)
	})
}

func (w *Watcher) addDirectory(dir string) error {
	if err := w.fsWatcher.Add(dir); err != nil {
		return errors.NewFileError("failed to add directory to watcher", dir, errors.FileOperationFailed, err)
	}

	w.mutex.Lock()
	found := false
	for _, existing := range w.directories {
		if existing == dir {
			found = true
			break
		}
	}
	if !found {
		w.directories = append(w.directories, dir)
	}
	w.mutex.Unlock()
	log.LogWithFields(log.F("directory", dir)).Debug("Watching directory")
	return nil
}

// Changes returns the channel that delivers bind file changes. It is closed
// once the watcher has stopped.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start begins the file watching process using fsnotify
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return errors.New("watcher is stopped")
	}
	if w.running {
		w.mutex.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.stopChan = make(chan struct{})
	stop := w.stopChan
	w.mutex.Unlock()

	go w.loop(stop)

	log.Debug("Watcher started.")
	return nil
}

func (w *Watcher) loop(stop <-chan struct{}) {
	// Only the loop sends, so only the loop closes.
	defer close(w.changes)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event, stop)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")

		case <-stop:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, stop <-chan struct{}) {
	if event.Op.Has(fsnotify.Create) {
		// A new directory may already hold bind files.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.AddTree(event.Name); err != nil {
				log.LogWithError(err).Warn("Cannot watch new directory")
			}
			w.emit(Change{Path: event.Name, Op: event.Op, Timestamp: time.Now()}, stop)
			return
		}
	}

	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}
	if !w.match(event.Name) {
		return
	}
	w.emit(Change{Path: event.Name, Op: event.Op, Timestamp: time.Now()}, stop)
}

// emit sends without blocking the event loop; a full channel means a reload
// is already pending.
func (w *Watcher) emit(c Change, stop <-chan struct{}) {
	select {
	case <-stop:
	case w.changes <- c:
	default:
		log.LogWithFields(log.F("file", c.Path)).Debug("Change channel is full, dropped event")
	}
}

// Stop halts the file watching process and releases the fsnotify watcher,
// whether or not Start was called. A stopped watcher cannot be restarted.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return
	}
	w.closed = true
	if w.running {
		close(w.stopChan)
		w.running = false
	} else {
		// No event loop will close it.
		close(w.changes)
	}
	w.mutex.Unlock()

	// Outside the lock: the event loop may be adding a directory.
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing fsnotify watcher")
	}
	log.Debug("Watcher stopped.")
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// Directories returns the list of directories being watched
func (w *Watcher) Directories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	dirsCopy := make([]string, len(w.directories))
	copy(dirsCopy, w.directories)
	return dirsCopy
}
