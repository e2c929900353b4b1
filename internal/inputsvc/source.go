// Package inputsvc adapts OS input hooks to a single sequential stream of
// raw key and click events.
package inputsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/neuroplastio/keybridge/internal/keymap"
	"github.com/neuroplastio/keybridge/pkg/registry"
	"go.uber.org/zap"
)

var ErrUnsupported = errors.New("input backend is not supported on this platform")

// Handler consumes input. Sources call it from one goroutine, in delivery
// order, and stop with the returned error if a call fails.
type Handler interface {
	// OnReady is called once the hook is active, before any other event.
	OnReady() error
	OnKeyDown(code uint16) error
	OnKeyUp(code uint16) error
	OnClick(click Click) error
}

type Click struct {
	X      int
	Y      int
	Button string
	Time   time.Time
}

// Source is an input backend.
type Source interface {
	// Start delivers events to h until ctx is done, the backend runs out of
	// events, or h returns an error.
	Start(ctx context.Context, h Handler) error
	// Keymap is the table raw key codes of this source belong to.
	Keymap() *keymap.Keymap
}

type Provider struct {
	Log *zap.Logger
	Now func() time.Time
}

type Registry = registry.Registry[Source, Provider]

const (
	BackendGohook = "gohook"
	BackendEvdev  = "evdev"
	BackendHID    = "hid"
	BackendScript = "script"
)

// NewRegistry returns a registry with every backend this package provides.
func NewRegistry(provider Provider) *Registry {
	if provider.Now == nil {
		provider.Now = time.Now
	}
	reg := registry.New[Source]("input backend", provider)
	reg.Register(BackendGohook, func(config json.RawMessage, p Provider) (Source, error) {
		var cfg GohookConfig
		if err := unmarshalConfig(config, &cfg); err != nil {
			return nil, err
		}
		src, err := NewGohookSource(p.Log.Named("input.gohook"), p.Now, cfg)
		if err != nil {
			return nil, err
		}
		return src, nil
	})
	reg.Register(BackendEvdev, func(config json.RawMessage, p Provider) (Source, error) {
		var cfg EvdevConfig
		if err := unmarshalConfig(config, &cfg); err != nil {
			return nil, err
		}
		src, err := NewEvdevSource(p.Log.Named("input.evdev"), cfg)
		if err != nil {
			return nil, err
		}
		return src, nil
	})
	reg.Register(BackendHID, func(config json.RawMessage, p Provider) (Source, error) {
		var cfg HIDConfig
		if err := unmarshalConfig(config, &cfg); err != nil {
			return nil, err
		}
		return NewHIDSource(p.Log.Named("input.hid"), cfg), nil
	})
	reg.Register(BackendScript, func(config json.RawMessage, p Provider) (Source, error) {
		var cfg ScriptConfig
		if err := unmarshalConfig(config, &cfg); err != nil {
			return nil, err
		}
		src, err := LoadScriptSource(p.Log.Named("input.script"), p.Now, cfg)
		if err != nil {
			return nil, err
		}
		return src, nil
	})
	return reg
}

// Backends lists the names NewRegistry registers.
func Backends() []string {
	return NewRegistry(Provider{}).Names()
}

func unmarshalConfig(config json.RawMessage, v any) error {
	if len(config) == 0 {
		return nil
	}
	if err := json.Unmarshal(config, v); err != nil {
		return fmt.Errorf("failed to unmarshal backend config: %w", err)
	}
	return nil
}

func keymapOrDefault(name string, def *keymap.Keymap) (*keymap.Keymap, error) {
	if name == "" {
		return def, nil
	}
	return keymap.ByName(name)
}

// buttonName converts a 1-based button number (1 left, 2 right, 3 middle)
// to its name.
func buttonName(button uint16) string {
	switch button {
	case 1:
		return "left"
	case 2:
		return "right"
	case 3:
		return "middle"
	default:
		return "unknown"
	}
}
