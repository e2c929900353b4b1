package inputsvc

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/neuroplastio/keybridge/internal/keymap"
	"github.com/neuroplastio/keybridge/pkg/keyscript"
	"go.uber.org/zap"
)

type ScriptConfig struct {
	Path string `json:"path"`
	// Keymap resolves key names and "#code" references. Defaults to vk.
	Keymap string `json:"keymap"`
}

// ScriptSource replays a keyscript as if it were typed.
type ScriptSource struct {
	log    *zap.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	keymap *keymap.Keymap
	script keyscript.Script
}

type ScriptOption func(*ScriptSource)

// WithSleep replaces the wait implementation.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ScriptOption {
	return func(s *ScriptSource) {
		s.sleep = sleep
	}
}

func LoadScriptSource(log *zap.Logger, now func() time.Time, cfg ScriptConfig) (*ScriptSource, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("script path is required")
	}
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	script, err := keyscript.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", cfg.Path, err)
	}
	km, err := keymapOrDefault(cfg.Keymap, keymap.VK)
	if err != nil {
		return nil, err
	}
	return NewScriptSource(log, now, km, script), nil
}

func NewScriptSource(log *zap.Logger, now func() time.Time, km *keymap.Keymap, script keyscript.Script, opts ...ScriptOption) *ScriptSource {
	s := &ScriptSource{
		log:    log,
		now:    now,
		sleep:  sleepContext,
		keymap: km,
		script: script,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ScriptSource) Keymap() *keymap.Keymap {
	return s.keymap
}

// Start plays every step and returns nil at the end of the script.
func (s *ScriptSource) Start(ctx context.Context, h Handler) error {
	if err := h.OnReady(); err != nil {
		return err
	}
	for _, step := range s.script.Steps {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.play(ctx, h, step); err != nil {
			return err
		}
	}
	s.log.Debug("Script finished", zap.Int("steps", len(s.script.Steps)))
	return nil
}

func (s *ScriptSource) play(ctx context.Context, h Handler, step keyscript.Step) error {
	switch {
	case step.Key != nil:
		code, err := s.code(*step.Key)
		if err != nil {
			return fmt.Errorf("line %d: %w", step.Line, err)
		}
		if step.Key.Down {
			return h.OnKeyDown(code)
		}
		return h.OnKeyUp(code)
	case step.Click != nil:
		return h.OnClick(Click{
			X:      step.Click.X,
			Y:      step.Click.Y,
			Button: step.Click.Button,
			Time:   s.now(),
		})
	case step.Wait > 0:
		if err := s.sleep(ctx, step.Wait); err != nil && ctx.Err() == nil {
			return err
		}
	}
	return nil
}

func (s *ScriptSource) code(step keyscript.KeyStep) (uint16, error) {
	if step.Raw != nil {
		return *step.Raw, nil
	}
	code, ok := s.keymap.Code(step.Key.Name)
	if !ok {
		return 0, fmt.Errorf("key %s has no code in keymap %s", step.Key.Name, s.keymap)
	}
	return code, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
