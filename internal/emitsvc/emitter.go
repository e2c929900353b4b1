// Package emitsvc writes normalized events to the host as JSON lines.
package emitsvc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// ReadyLine tells the host that the key hook is active.
const ReadyLine = "KEY LISTENER READY"

// Emitter serializes records onto a writer, one line each, flushing after
// every line. A write error is fatal for the caller; nothing is retried.
type Emitter struct {
	log *zap.Logger

	mu  sync.Mutex
	buf *bufio.Writer
	enc *json.Encoder

	ready  atomic.Bool
	combos atomic.Int64
	clicks atomic.Int64
}

type Stats struct {
	Combos int64
	Clicks int64
}

func New(log *zap.Logger, w io.Writer) *Emitter {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &Emitter{
		log: log,
		buf: buf,
		enc: enc,
	}
}

// Ready writes ReadyLine. Only the first call writes.
func (e *Emitter) Ready() error {
	if !e.ready.CompareAndSwap(false, true) {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.buf.WriteString(ReadyLine + "\n"); err != nil {
		return fmt.Errorf("failed to write ready line: %w", err)
	}
	if err := e.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush ready line: %w", err)
	}
	e.log.Info("Listener ready")
	return nil
}

func (e *Emitter) Emit(rec Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write %s record: %w", rec.Kind(), err)
	}
	if err := e.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s record: %w", rec.Kind(), err)
	}
	if rec.Click != nil {
		e.clicks.Inc()
	} else {
		e.combos.Inc()
	}
	return nil
}

func (e *Emitter) Stats() Stats {
	return Stats{
		Combos: e.combos.Load(),
		Clicks: e.clicks.Load(),
	}
}
