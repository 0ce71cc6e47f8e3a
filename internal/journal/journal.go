// Package journal archives tick reports as zstd-compressed JSON lines, one
// file per simulated year.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/kingdom-sim/internal/engine"
	"github.com/talgya/kingdom-sim/internal/scenario"
)

// Record is one journal line.
type Record struct {
	Run string `json:"run,omitempty"`
	engine.TickReport
}

// Writer appends records, rotating files when the simulated year or the
// simulation generation changes.
type Writer struct {
	dir string
	run string
	cfg scenario.Config

	mu      sync.Mutex
	gen     uint64
	curYear uint64
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// NewWriter creates a journal under dir. Files are named
// "<run>-year-NNNN.jsonl.zst"; after a reset the run name gains a
// "-genN" suffix so each timeline gets its own files.
func NewWriter(dir, run string, cfg scenario.Config) *Writer {
	return &Writer{dir: dir, run: run, cfg: cfg}
}

// Attach subscribes the writer to every tick of sim.
func (w *Writer) Attach(sim *engine.Simulation) {
	sim.Subscribe(func(r engine.TickReport) {
		if err := w.Write(r); err != nil {
			slog.Error("journal write failed", "tick", r.Tick, "error", err)
		}
	})
}

// Write appends one tick report.
func (w *Writer) Write(r engine.TickReport) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	year := engine.YearOf(r.Tick, w.cfg)
	if w.w == nil || year != w.curYear || r.Generation != w.gen {
		w.gen = r.Generation
		if err := w.rotateLocked(year); err != nil {
			return err
		}
	}

	b, err := json.Marshal(Record{Run: w.runLocked(), TickReport: r})
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush pushes buffered records through the compressor to disk.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

// Close flushes and closes the current file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// Run returns the run name of the generation being written.
func (w *Writer) Run() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runLocked()
}

func (w *Writer) runLocked() string {
	switch {
	case w.gen == 0:
		return w.run
	case w.run == "":
		return fmt.Sprintf("gen%d", w.gen)
	default:
		return fmt.Sprintf("%s-gen%d", w.run, w.gen)
	}
}

// Path returns the file a given year of the current generation is written to.
func (w *Writer) Path(year uint64) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pathLocked(year)
}

func (w *Writer) pathLocked(year uint64) string {
	name := fmt.Sprintf("year-%04d.jsonl.zst", year)
	if run := w.runLocked(); run != "" {
		name = run + "-" + name
	}
	return filepath.Join(w.dir, name)
}

func (w *Writer) rotateLocked(year uint64) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	path := w.pathLocked(year)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curYear = year
	slog.Debug("journal rotated", "year", year, "path", path)
	return nil
}

func (w *Writer) closeLocked() error {
	var errs []error
	if w.w != nil {
		errs = append(errs, w.w.Flush())
	}
	if w.enc != nil {
		errs = append(errs, w.enc.Close())
		w.enc = nil
	}
	if w.f != nil {
		errs = append(errs, w.f.Close())
		w.f = nil
	}
	w.w = nil
	return errors.Join(errs...)
}

// ReadFile decodes every record in a journal file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Record
	jd := json.NewDecoder(dec)
	for {
		var r Record
		if err := jd.Decode(&r); err == io.EOF {
			return out, nil
		} else if err != nil {
			return out, fmt.Errorf("decode record %d: %w", len(out)+1, err)
		}
		out = append(out, r)
	}
}
