// Package configsvc watches YAML configuration files and notifies clients of changes.
package configsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/ghodss/yaml"
	"go.uber.org/zap"
)

type subscriber func(event fsnotify.Event)

// errEmpty marks a file with no content, which editors produce briefly while
// truncating before a write.
var errEmpty = errors.New("config file is empty")

type Service struct {
	log *zap.Logger

	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	subscribers []subscriber
	watched     map[string]struct{}
	ready       chan struct{}
}

func New(log *zap.Logger) (*Service, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Service{
		log:     log,
		watcher: watcher,
		watched: make(map[string]struct{}),
		ready:   make(chan struct{}),
	}, nil
}

// Start dispatches file events to registered configs until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	defer s.watcher.Close()
	close(s.ready)
	s.log.Debug("Config service started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			s.mu.Lock()
			subs := s.subscribers
			s.mu.Unlock()
			for _, sub := range subs {
				sub(event)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error("Watcher error", zap.Error(err))
		}
	}
}

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

func (s *Service) watch(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.watched[dir]; ok {
		return nil
	}
	if err := s.watcher.Add(dir); err != nil {
		return err
	}
	s.watched[dir] = struct{}{}
	return nil
}

// Register reads the configuration file at path on top of def and calls fn
// whenever the file changes to a different configuration. A missing file
// yields def. Rewrites that leave the configuration unchanged are dropped.
// Service instance is used as a parameter instead of the method receiver to enable generic types.
func Register[T any](s *Service, path string, def T, fn func(config T, err error)) (T, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return def, fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}
	config, err := Load(absPath, def)
	if err != nil {
		return def, err
	}

	dir := filepath.Dir(absPath)
	if err := s.watch(dir); err != nil {
		s.log.Warn("Config changes will not be picked up", zap.String("path", absPath), zap.Error(err))
		return config, nil
	}

	last := config
	s.mu.Lock()
	s.subscribers = append(s.subscribers, func(event fsnotify.Event) {
		if event.Name != absPath || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
			return
		}
		next, err := readConfig(absPath, def)
		switch {
		case errors.Is(err, errEmpty), errors.Is(err, fs.ErrNotExist):
			return
		case err != nil:
			fn(def, fmt.Errorf("failed to read config: %w", err))
			return
		}
		if reflect.DeepEqual(next, last) {
			return
		}
		last = next
		fn(next, nil)
	})
	s.mu.Unlock()

	return config, nil
}

// Load reads path on top of def. A missing file yields def.
func Load[T any](path string, def T) (T, error) {
	config, err := readConfig(path, def)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, errEmpty) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("failed to read config: %w", err)
	}
	return config, nil
}

// WriteDefault writes def to path unless the file exists. It reports
// whether a file was written.
func WriteDefault[T any](path string, def T) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := writeConfig(path, def); err != nil {
		return false, fmt.Errorf("failed to initialize config: %w", err)
	}
	return true, nil
}

// Marshal renders config as YAML.
func Marshal[T any](config T) ([]byte, error) {
	jsonB, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	yamlB, err := yaml.JSONToYAML(jsonB)
	if err != nil {
		return nil, fmt.Errorf("failed to convert json to yaml: %w", err)
	}
	return yamlB, nil
}

func writeConfig[T any](path string, config T) error {
	yamlB, err := Marshal(config)
	if err != nil {
		return err
	}
	err = os.WriteFile(path, yamlB, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func readConfig[T any](path string, def T) (T, error) {
	yamlB, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(bytes.TrimSpace(yamlB)) == 0 {
		return def, errEmpty
	}

	jsonB, err := yaml.YAMLToJSON(yamlB)
	if err != nil {
		return def, fmt.Errorf("failed to convert yaml to json: %w", err)
	}
	err = json.Unmarshal(jsonB, &def)
	if err != nil {
		return def, fmt.Errorf("failed to unmarshal json: %w", err)
	}
	return def, nil
}
