// Package clicksvc keeps the clicks of a session in a JSON file that hosts
// read once recording stops.
package clicksvc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/neuroplastio/keybridge/internal/emitsvc"
	"github.com/neuroplastio/keybridge/pkg/bus"
	"go.uber.org/zap"
)

// Store holds every click seen so far and rewrites the whole file on each
// change. Readers never observe a partial file.
type Store struct {
	log *zap.Logger

	mu     sync.Mutex
	path   string
	clicks []emitsvc.ClickRecord
}

func New(log *zap.Logger, path string) *Store {
	return &Store{
		log:    log,
		path:   path,
		clicks: []emitsvc.ClickRecord{},
	}
}

func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *Store) Clicks() []emitsvc.ClickRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	clicks := make([]emitsvc.ClickRecord, len(s.clicks))
	copy(clicks, s.clicks)
	return clicks
}

func (s *Store) Add(click emitsvc.ClickRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicks = append(s.clicks, click)
	return s.write()
}

// SetPath moves output to path. Clicks seen so far are written there right
// away; the old file is left as is.
func (s *Store) SetPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == s.path {
		return nil
	}
	s.log.Info("Click file changed", zap.String("from", s.path), zap.String("to", path))
	s.path = path
	if len(s.clicks) == 0 {
		return nil
	}
	return s.write()
}

func (s *Store) write() error {
	data, err := json.MarshalIndent(s.clicks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal clicks: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create click file directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp click file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write click file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write click file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace click file: %w", err)
	}
	return nil
}

// Run stores clicks from the subscription until the bus closes it, which
// happens once the subscribing context is done. Clicks still buffered at that
// point are stored too. Write failures are logged; the stdout stream keeps
// going without the file.
func (s *Store) Run(sub <-chan bus.Message[string, emitsvc.Record]) error {
	for msg := range sub {
		if msg.Message.Click == nil {
			continue
		}
		if err := s.Add(*msg.Message.Click); err != nil {
			s.log.Error("Failed to save click", zap.Error(err), zap.String("path", s.Path()))
		}
	}
	s.log.Debug("Click store stopped", zap.Int("clicks", len(s.Clicks())))
	return nil
}

// Load reads a click file written by a Store.
func Load(path string) ([]emitsvc.ClickRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read click file: %w", err)
	}
	var clicks []emitsvc.ClickRecord
	if err := json.Unmarshal(data, &clicks); err != nil {
		return nil, fmt.Errorf("failed to parse click file %s: %w", path, err)
	}
	return clicks, nil
}
