package watch

import (
	"context"
	"sync"
	"time"

	"lyxs/internal/errors"
	"lyxs/internal/log"
)

// Reloadable is rebuilt when its sources change.
type Reloadable interface {
	Reload() error
}

// Open starts a watcher over every existing directory tree in dirs. Missing
// directories are skipped; they are picked up on the next start.
func Open(dirs []string, match func(path string) bool) (*Watcher, error) {
	w, err := New(match)
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := w.AddTree(dir); err != nil {
			if errors.IsFileNotFound(err) {
				log.LogWithFields(log.F("directory", dir)).Debug("Binding directory missing, not watched")
				continue
			}
			w.Stop()
			return nil, err
		}
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return nil, err
	}
	return w, nil
}

// Reloader calls Reload once a burst of changes has settled. Editors often
// write a file in several steps, so each change restarts the debounce timer.
type Reloader struct {
	changes  <-chan Change
	target   Reloadable
	debounce time.Duration
	onReload func(err error)

	mutex        sync.RWMutex
	reloads      int
	lastActivity time.Time
	lastErr      error
}

// Status summarizes the reloads performed so far.
type Status struct {
	Reloads      int       // Completed reloads, failed ones included
	LastActivity time.Time // Time of the last change seen
	LastError    error     // Result of the most recent reload
}

// NewReloader creates a reloader fed by changes.
func NewReloader(changes <-chan Change, target Reloadable, debounce time.Duration) *Reloader {
	return &Reloader{
		changes:  changes,
		target:   target,
		debounce: debounce,
	}
}

// OnReload registers fn to run after every reload with its result.
func (r *Reloader) OnReload(fn func(err error)) {
	r.onReload = fn
}

// Run processes changes until ctx is cancelled or the change channel is
// closed. A pending reload is dropped on cancellation.
func (r *Reloader) Run(ctx context.Context) {
	var (
		timer   *time.Timer
		pending <-chan time.Time
		last    Change
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case change, ok := <-r.changes:
			if !ok {
				return
			}
			last = change
			r.mutex.Lock()
			r.lastActivity = change.Timestamp
			r.mutex.Unlock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(r.debounce)
			pending = timer.C

		case <-pending:
			pending = nil
			err := r.target.Reload()
			r.mutex.Lock()
			r.reloads++
			r.lastErr = err
			r.mutex.Unlock()
			fields := log.LogWithFields(log.F("trigger", last.Path), log.F("op", last.Op.String()))
			if err != nil {
				fields.WithError(err).Warn("Reload after binding change failed")
			} else {
				fields.Info("Bindings reloaded")
			}
			if r.onReload != nil {
				r.onReload(err)
			}
		}
	}
}

// Status returns a snapshot of the reloader's counters.
func (r *Reloader) Status() Status {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return Status{
		Reloads:      r.reloads,
		LastActivity: r.lastActivity,
		LastError:    r.lastErr,
	}
}
