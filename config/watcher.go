package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/relay/event"
)

// ReloadedName is the name of the event constructed by Reloaded.
const ReloadedName = "ConfigReloaded"

// ReloadedChannel is the conventional channel for reload events.
const ReloadedChannel = "config"

// Reloaded creates the event announcing a configuration reload. Hosts
// push it from their run loop after receiving the new Config from a
// Watcher:
//
//	case cfg := <-w.Events():
//		mgr.Push(config.Reloaded(path, cfg), config.ReloadedChannel, "")
func Reloaded(path string, cfg Config) *event.Event {
	return event.New(ReloadedName,
		event.WithKwargs(map[string]any{"path": path, "config": cfg}))
}

// Watcher watches a configuration file and delivers reloaded Configs on
// a channel. File change bursts are debounced before reloading.
//
// The dispatch engine is single-threaded, so the watcher never touches a
// manager itself; the host's run loop receives from Events and pushes a
// Reloaded event between flushes.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration

	events chan Config
	errs   chan error

	closeOnce sync.Once
	closeCh   chan struct{}
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period after a file change before the
// file is reloaded. The default is 100ms.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watch starts watching the configuration file at path. The parent
// directory is watched so editors that replace the file by rename are
// still observed.
func Watch(path string, opts ...WatchOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     absPath,
		watcher:  fsw,
		debounce: 100 * time.Millisecond,
		events:   make(chan Config, 1),
		errs:     make(chan error, 1),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.loop()
	return w, nil
}

// Events delivers reloaded configurations.
func (w *Watcher) Events() <-chan Config {
	return w.events
}

// Errors delivers reload failures.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
				!ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-fire:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			cfg, err := Load(w.path)
			if err != nil {
				w.deliverErr(err)
				continue
			}
			w.deliver(cfg)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.deliverErr(err)
		}
	}
}

// deliver sends without blocking; an unread older config is replaced.
func (w *Watcher) deliver(cfg Config) {
	for {
		select {
		case w.events <- cfg:
			return
		default:
			select {
			case <-w.events:
			default:
			}
		}
	}
}

func (w *Watcher) deliverErr(err error) {
	select {
	case w.errs <- err:
	default:
	}
}
