//go:build !linux

package inputsvc

import (
	"context"
	"fmt"

	"github.com/neuroplastio/keybridge/internal/keymap"
	"go.uber.org/zap"
)

type EvdevSource struct{}

func NewEvdevSource(log *zap.Logger, cfg EvdevConfig) (*EvdevSource, error) {
	return nil, fmt.Errorf("evdev: %w", ErrUnsupported)
}

func (s *EvdevSource) Keymap() *keymap.Keymap {
	return keymap.Evdev
}

func (s *EvdevSource) Start(ctx context.Context, h Handler) error {
	return fmt.Errorf("evdev: %w", ErrUnsupported)
}

func EvdevDevices() ([]EvdevDevice, error) {
	return nil, fmt.Errorf("evdev: %w", ErrUnsupported)
}
