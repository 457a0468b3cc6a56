package clipboard

import (
	"errors"
	"sync"

	"golang.design/x/clipboard"
)

var (
	// ErrUnavailable is returned by Write when Init has not succeeded.
	ErrUnavailable = errors.New("clipboard not initialized")
	errWriteFailed = errors.New("clipboard write failed")
)

var (
	writeMu sync.Mutex
	ready   bool

	writeText = func(buf []byte) <-chan struct{} {
		return clipboard.Write(clipboard.FmtText, buf)
	}
)

// Init connects to the system clipboard. It must succeed before Write.
func Init() error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if err := clipboard.Init(); err != nil {
		return err
	}
	ready = true
	return nil
}

// Write performs a mutex-guarded clipboard write of text. On X11 this process
// serves the data only while it owns the selection; the returned channel is
// closed once another client takes ownership.
func Write(text string) (<-chan struct{}, error) {
	writeMu.Lock()
	defer writeMu.Unlock()
	if !ready {
		return nil, ErrUnavailable
	}
	changed := writeText([]byte(text))
	if changed == nil {
		return nil, errWriteFailed
	}
	return changed, nil
}
