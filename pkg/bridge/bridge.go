// Package bridge wires an input source to the stdout event stream, the click
// file and the journal.
package bridge

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/neuroplastio/keybridge/internal/clicksvc"
	"github.com/neuroplastio/keybridge/internal/configsvc"
	"github.com/neuroplastio/keybridge/internal/emitsvc"
	"github.com/neuroplastio/keybridge/internal/inputsvc"
	"github.com/neuroplastio/keybridge/internal/journalsvc"
	"github.com/neuroplastio/keybridge/pkg/bus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Bridge struct {
	log        *zap.Logger
	level      zap.AtomicLevel
	config     Config
	configPath string
	configDef  Config
	overrides  func(Config) Config
	now        func() time.Time
	sources    *inputsvc.Registry
	source     inputsvc.Source
}

type Option func(*Bridge)

func WithNow(now func() time.Time) Option {
	return func(b *Bridge) {
		b.now = now
	}
}

// WithSource bypasses backend selection.
func WithSource(src inputsvc.Source) Option {
	return func(b *Bridge) {
		b.source = src
	}
}

// WithConfigWatch reloads log.level and clicks.file when path changes. The
// file is read on top of def and every result goes through overrides, so
// values given on the command line survive edits of the file.
func WithConfigWatch(path string, def Config, overrides func(Config) Config) Option {
	return func(b *Bridge) {
		b.configPath = path
		b.configDef = def
		if overrides != nil {
			b.overrides = overrides
		}
	}
}

func keepConfig(cfg Config) Config {
	return cfg
}

func New(log *zap.Logger, level zap.AtomicLevel, config Config, opts ...Option) *Bridge {
	b := &Bridge{
		log:       log,
		level:     level,
		config:    config,
		now:       time.Now,
		overrides: keepConfig,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.sources = inputsvc.NewRegistry(inputsvc.Provider{
		Log: log,
		Now: b.now,
	})
	return b
}

// Run drives the selected pipelines until ctx is done or the source stops.
// A failed stdout write ends the run with an error.
func (b *Bridge) Run(ctx context.Context, mode Mode, stdout io.Writer) error {
	src, err := b.openSource()
	if err != nil {
		return err
	}

	emitter := emitsvc.New(b.log.Named("emit"), stdout)
	records := bus.NewBus[string, emitsvc.Record](b.log.Named("bus"))
	busCtx, busCancel := context.WithCancel(context.Background())
	defer busCancel()
	if err := records.Start(busCtx); err != nil {
		return fmt.Errorf("failed to start bus: %w", err)
	}

	// subscribers outlive the source so that records published before it
	// stopped still reach them
	subCtx, subCancel := context.WithCancel(context.Background())
	defer subCancel()
	var consumers errgroup.Group

	var store *clicksvc.Store
	if mode.Clicks && b.config.Clicks.Enabled {
		store = clicksvc.New(b.log.Named("clicks"), b.config.Clicks.File)
		sub := records.Subscribe(subCtx, emitsvc.TypeClick)
		consumers.Go(func() error {
			return store.Run(sub)
		})
	}
	if b.config.Journal.Enabled {
		journal, err := journalsvc.Open(b.log.Named("journal"), b.config.Journal.Dir)
		if err != nil {
			b.log.Error("Journal disabled", zap.Error(err))
		} else {
			defer journal.Close()
			sub := records.Subscribe(subCtx)
			consumers.Go(func() error {
				return journal.Run(sub)
			})
		}
	}

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()
	group, groupCtx := errgroup.WithContext(runCtx)

	if b.configPath != "" {
		if err := b.watchConfig(groupCtx, group, store); err != nil {
			b.log.Warn("Config reload disabled", zap.Error(err))
		}
	}

	listener := NewListener(b.log.Named("listener"), mode, src.Keymap(), b.now, emitter, func(rec emitsvc.Record) {
		records.Publish(busCtx, rec.Kind(), rec)
	})
	group.Go(func() error {
		defer runCancel()
		if err := src.Start(groupCtx, listener); err != nil {
			return fmt.Errorf("input source failed: %w", err)
		}
		return nil
	})

	err = group.Wait()
	subCancel()
	consumers.Wait()
	busCancel()

	stats := emitter.Stats()
	b.log.Info("Bridge stopped", zap.Int64("combos", stats.Combos), zap.Int64("clicks", stats.Clicks))
	return err
}

func (b *Bridge) openSource() (inputsvc.Source, error) {
	if b.source != nil {
		return b.source, nil
	}
	raw, err := b.config.BackendConfig()
	if err != nil {
		return nil, err
	}
	src, err := b.sources.New(b.config.Backend, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s input: %w", b.config.Backend, err)
	}
	return src, nil
}

func (b *Bridge) watchConfig(ctx context.Context, group *errgroup.Group, store *clicksvc.Store) error {
	svc, err := configsvc.New(b.log.Named("config"))
	if err != nil {
		return err
	}
	group.Go(func() error {
		return svc.Start(ctx)
	})
	_, err = configsvc.Register(svc, b.configPath, b.configDef, func(cfg Config, err error) {
		if err != nil {
			b.log.Error("Failed to reload config", zap.Error(err))
			return
		}
		b.reload(b.overrides(cfg), store)
	})
	return err
}

func (b *Bridge) reload(cfg Config, store *clicksvc.Store) {
	lvl, err := ParseLevel(cfg.Log.Level)
	if err != nil {
		b.log.Error("Ignoring log level", zap.Error(err))
	} else if lvl != b.level.Level() {
		b.level.SetLevel(lvl)
		b.log.Info("Log level changed", zap.Stringer("level", lvl))
	}
	if store != nil {
		if err := store.SetPath(cfg.Clicks.File); err != nil {
			b.log.Error("Failed to move click file", zap.Error(err))
		}
	}
}
