package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
)

const (
	logFileName  = "sleek_debug.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

// Setup routes the standard logger. When enabled, lines go to sleek_debug.log
// in the working directory with size-based rotation (10MB, max 3 archives).
// When disabled, logs are discarded so the terminal only shows diagnostics.
// The returned closer releases the log file.
func Setup(enableFileLogging bool) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if !enableFileLogging {
		log.SetOutput(io.Discard)
		return nopCloser{}
	}

	w, err := openRotating(logFileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		log.SetOutput(io.Discard)
		return nopCloser{}
	}
	log.SetOutput(w)
	log.Printf("Logging to %s", logFileName)
	return w
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type rotatingWriter struct {
	path string
	f    *os.File
}

func openRotating(path string) (*rotatingWriter, error) {
	rotate(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &rotatingWriter{path: path, f: f}, nil
}

// Write is serialized by the log package.
func (w *rotatingWriter) Write(p []byte) (int, error) {
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		rotate(w.path)
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func (w *rotatingWriter) Close() error { return w.f.Close() }

// rotate shifts path -> path.1 -> path.2 -> path.3 once path exceeds the
// size limit. The oldest archive is dropped.
func rotate(path string) {
	st, err := os.Stat(path)
	if err != nil || st.Size() <= maxSizeBytes {
		return
	}
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string { return fmt.Sprintf("%s.%d", path, n) }
