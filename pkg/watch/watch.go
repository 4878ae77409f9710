// Package watch follows a trace file and reports its full text whenever it
// changes.
//
// Simulations append to their trace in many small writes, and editors often
// replace a file through a rename. A [Follower] therefore watches the
// directory that holds the trace, keeps only events for the trace itself and
// coalesces bursts of them: once no further event arrives for the debounce
// window, the file is re-read and a single [Update] is delivered.
//
// Updates are delivered from one goroutine, in order, so handlers never run
// concurrently with each other.
//
//	f, err := watch.NewFollower("run.log", 200*time.Millisecond)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//	return f.Run(ctx, func(u watch.Update) {
//	    if u.Err != nil {
//	        return
//	    }
//	    st := trace.Process(u.Text)
//	    ...
//	})
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/observability"
	"github.com/matzehuels/ruleflow/pkg/source"
)

// DefaultDebounce is used when NewFollower is given a non-positive window.
const DefaultDebounce = 200 * time.Millisecond

// Update is one refresh of the followed trace.
type Update struct {
	// Seq counts updates from 1. The initial read is Seq 1.
	Seq int

	// Text is the full trace text. Empty when Err is set.
	Text string

	// Events is the number of file events coalesced into this update.
	// Zero for the initial read.
	Events int

	// Time is when the file was read.
	Time time.Time

	// Err is set when the file could not be read, for example while it is
	// being replaced. Following continues after a failed read.
	Err error
}

// Handler receives updates.
type Handler func(Update)

// Follower watches a single trace file.
type Follower struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher

	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	running bool
}

// NewFollower creates a follower for the trace at path. The file must exist.
func NewFollower(path string, debounce time.Duration) (*Follower, error) {
	if err := errors.ValidateTracePath(path); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", path)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create watcher")
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "watch %s", filepath.Dir(abs))
	}

	return &Follower{
		path:     abs,
		debounce: debounce,
		watcher:  w,
		done:     make(chan struct{}),
	}, nil
}

// Path returns the absolute path of the followed trace.
func (f *Follower) Path() string { return f.path }

// Run reads the trace once, then delivers an update after every burst of
// changes until ctx is canceled or Close is called. It returns nil on a
// normal stop. Run may only be called once.
func (f *Follower) Run(ctx context.Context, fn Handler) error {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return errors.New(errors.ErrCodeInternal, "follower for %s is already running", f.path)
	}
	f.running = true
	f.mu.Unlock()

	seq := 0
	emit := func(events int) {
		seq++
		text, err := source.ReadFile(f.path)
		observability.Watch().OnTraceRead(ctx, f.path, events, len(text), err)
		fn(Update{Seq: seq, Text: text, Events: events, Time: time.Now(), Err: err})
	}
	emit(0)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending int
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-f.done:
			return nil

		case event, ok := <-f.watcher.Events:
			if !ok {
				return nil
			}
			if !f.relevant(event) {
				continue
			}
			pending++
			if timer == nil {
				timer = time.NewTimer(f.debounce)
				timerC = timer.C
			} else {
				timer.Reset(f.debounce)
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return nil
			}
			seq++
			fn(Update{Seq: seq, Time: time.Now(), Err: errors.Wrap(errors.ErrCodeInternal, err, "watch %s", f.path)})

		case <-timerC:
			timer, timerC = nil, nil
			n := pending
			pending = 0
			emit(n)
		}
	}
}

// Close stops the follower and releases the underlying watcher.
func (f *Follower) Close() error {
	var err error
	f.stopOnce.Do(func() {
		close(f.done)
		err = f.watcher.Close()
	})
	return err
}

func (f *Follower) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != f.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
