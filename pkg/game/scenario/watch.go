package scenario

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce is how long a file must stay quiet before it is reloaded;
// editors often write a file several times per save.
const reloadDebounce = 100 * time.Millisecond

// Watcher reloads a scenario file whenever it changes on disk.
// Successfully parsed scenarios arrive on Updates; read or parse failures
// arrive on Errors. Both channels are closed by Close.
type Watcher struct {
	watcher  *fsnotify.Watcher
	filename string
	Updates  chan *Scenario
	Errors   chan error
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewWatcher starts watching filename. The file's directory is watched
// rather than the file itself so that atomic replace-on-save keeps working.
func NewWatcher(filename string) (*Watcher, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher:  w,
		filename: abs,
		Updates:  make(chan *Scenario, 4),
		Errors:   make(chan error, 4),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Updates)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	// Reload once the file has been quiet for reloadDebounce
	var reload <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.filename {
				continue
			}
			reload = time.After(reloadDebounce)
		case <-reload:
			reload = nil
			s, err := Load(w.filename)
			if err != nil {
				w.send(nil, err)
				continue
			}
			w.send(s, nil)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.send(nil, err)
		case <-w.closeCh:
			return
		}
	}
}

// send delivers a result unless the watcher is closing
func (w *Watcher) send(s *Scenario, err error) {
	if err != nil {
		select {
		case w.Errors <- err:
		case <-w.closeCh:
		}
		return
	}
	select {
	case w.Updates <- s:
	case <-w.closeCh:
	}
}
