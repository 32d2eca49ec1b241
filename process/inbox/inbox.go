// Package inbox imports files dropped into a directory: bank statements go
// through the importer, receipt images through OCR. Handled files move to
// processed/, rejected ones to failed/.
package inbox

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/pkg/logger"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"

	// archived images above this size are downscaled
	maxArchiveBytes = 1_000_000
)

// Handler processes one file. A nil error archives it under processed/.
type Handler func(ctx context.Context, path string) error

// Stats counts what a run did.
type Stats struct {
	Processed int64
	Failed    int64
}

type Inbox struct {
	dir      string
	handle   Handler
	workers  int
	debounce time.Duration

	mu sync.Mutex
	// names queued or being handled; a watched file is never handled twice at once
	busy map[string]bool
}

// New builds an Inbox over dir. workers <= 0 means NumCPU.
func New(dir string, h Handler, workers int, debounce time.Duration) *Inbox {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Inbox{dir: dir, handle: h, workers: workers, debounce: debounce, busy: map[string]bool{}}
}

// IsStatement reports whether name is a bank statement export.
func IsStatement(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".ofx", ".qfx":
		return true
	}
	return false
}

// IsImage reports whether name is a receipt image.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		return true
	}
	return false
}

// IsSupported skips hidden files and OCR temp files.
func IsSupported(name string) bool {
	if strings.HasPrefix(name, ".") || strings.Contains(name, ".ocr.") {
		return false
	}
	return IsStatement(name) || IsImage(name)
}

// Scan lists supported files in the inbox, sorted by name.
func (in *Inbox) Scan() []string {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

// claim marks name busy and reports false if it already was.
func (in *Inbox) claim(name string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.busy[name] {
		return false
	}
	in.busy[name] = true
	return true
}

func (in *Inbox) release(name string) {
	in.mu.Lock()
	delete(in.busy, name)
	in.mu.Unlock()
}

// RunOnce processes the files currently in the inbox and waits for them.
func (in *Inbox) RunOnce(ctx context.Context) Stats {
	ch := make(chan string, 64)
	go func() {
		defer close(ch)
		for _, name := range in.Scan() {
			select {
			case ch <- name:
			case <-ctx.Done():
				return
			}
		}
	}()
	return in.pool(ctx, ch)
}

// Watch drains the inbox, then processes new files once they stop changing
// for the debounce interval. It returns when ctx is cancelled.
func (in *Inbox) Watch(ctx context.Context) (Stats, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return Stats{}, err
	}
	defer w.Close()
	if err := w.Add(in.dir); err != nil {
		return Stats{}, err
	}
	l := logger.FromContext(ctx)
	l.Info().Str("dir", in.dir).Dur("debounce", in.debounce).Msg("watching inbox")

	ch := make(chan string, 256)
	go func() {
		defer close(ch)
		for _, name := range in.Scan() {
			if in.claim(name) {
				ch <- name
			}
		}
		pending := map[string]time.Time{}
		tick := in.debounce / 2
		if tick < 10*time.Millisecond {
			tick = 10 * time.Millisecond
		}
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				name := filepath.Base(ev.Name)
				if IsSupported(name) {
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) < in.debounce {
						continue
					}
					if !in.claim(name) {
						// still being handled, retry after it is released
						pending[name] = now
						continue
					}
					delete(pending, name)
					ch <- name
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.Warn().Err(err).Msg("watch error")
			}
		}
	}()
	return in.pool(ctx, ch), nil
}

// pool runs the handler over names with the configured number of workers.
func (in *Inbox) pool(ctx context.Context, names <-chan string) Stats {
	var processed, failed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < in.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range names {
				switch in.processOne(ctx, name) {
				case resultProcessed:
					processed.Add(1)
				case resultFailed:
					failed.Add(1)
				}
				in.release(name)
			}
		}()
	}
	wg.Wait()
	return Stats{Processed: processed.Load(), Failed: failed.Load()}
}

type result int

const (
	resultSkipped result = iota
	resultProcessed
	resultFailed
)

func (in *Inbox) processOne(ctx context.Context, name string) result {
	l := logger.FromContext(ctx).With().Str("file", name).Logger()
	src := filepath.Join(in.dir, name)
	if _, err := os.Stat(src); err != nil {
		// picked up twice or removed before we got to it
		l.Debug().Err(err).Msg("skip missing file")
		return resultSkipped
	}
	err := in.handle(ctx, src)
	dst := ProcessedDir
	if err != nil {
		l.Warn().Err(err).Msg("inbox file failed")
		dst = FailedDir
	} else {
		l.Info().Msg("inbox file processed")
	}
	if mvErr := archive(src, filepath.Join(in.dir, dst)); mvErr != nil {
		l.Warn().Err(mvErr).Msg("archive failed")
	}
	if err != nil {
		return resultFailed
	}
	return resultProcessed
}

// archive moves src into dir. Large images are downscaled on the way.
func archive(src, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(dir, filepath.Base(src))
	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !IsImage(src) || fi.Size() <= maxArchiveBytes {
		return move(src, dst)
	}
	img, err := imaging.Open(src)
	if err != nil {
		return move(src, dst)
	}
	// encoded size roughly follows pixel area
	scale := math.Sqrt(float64(maxArchiveBytes) / float64(fi.Size()))
	scale = math.Max(0.1, math.Min(scale, 0.95))
	w := int(math.Max(1, math.Round(float64(img.Bounds().Dx())*scale)))
	img = imaging.Resize(img, w, 0, imaging.Lanczos)
	if err := imaging.Save(img, dst); err != nil {
		return move(src, dst)
	}
	return os.Remove(src)
}

func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
