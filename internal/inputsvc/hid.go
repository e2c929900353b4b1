package inputsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neuroplastio/keybridge/internal/keymap"
	"github.com/sstallion/go-hid"
	"go.uber.org/zap"
)

const (
	usagePageGenericDesktop = 0x01
	usageKeyboard           = 0x06
	hidReadTimeout          = 100 * time.Millisecond
)

var ErrNoHIDKeyboard = errors.New("no HID keyboard found")

type HIDConfig struct {
	VendorID  uint16 `json:"vendorId"`
	ProductID uint16 `json:"productId"`
	// Path opens a specific hidraw node, ignoring the vendor/product filter.
	Path string `json:"path,omitempty"`
}

// HIDSource reads boot keyboard reports straight from a HID device. It has
// no pointer and never reports clicks.
type HIDSource struct {
	log    *zap.Logger
	config HIDConfig
}

func NewHIDSource(log *zap.Logger, cfg HIDConfig) *HIDSource {
	return &HIDSource{
		log:    log,
		config: cfg,
	}
}

func (s *HIDSource) Keymap() *keymap.Keymap {
	return keymap.HID
}

func (s *HIDSource) Start(ctx context.Context, h Handler) error {
	if err := hid.Init(); err != nil {
		return fmt.Errorf("failed to initialize hidapi: %w", err)
	}
	defer hid.Exit()

	path := s.config.Path
	if path == "" {
		keyboards, err := HIDKeyboards(s.config.VendorID, s.config.ProductID)
		if err != nil {
			return err
		}
		if len(keyboards) == 0 {
			return fmt.Errorf("%w (vendor %04x, product %04x)", ErrNoHIDKeyboard, s.config.VendorID, s.config.ProductID)
		}
		path = keyboards[0].Path
		s.log.Info("Using HID keyboard", zap.String("name", keyboards[0].Name), zap.String("path", path))
	}

	dev, err := hid.OpenPath(path)
	if err != nil {
		return fmt.Errorf("failed to open HID device %s: %w", path, err)
	}
	defer dev.Close()

	if err := h.OnReady(); err != nil {
		return err
	}

	var state KeyBits
	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := dev.ReadWithTimeout(buf, hidReadTimeout)
		if errors.Is(err, hid.ErrTimeout) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read HID report: %w", err)
		}
		next, ok, err := ParseBootReport(buf[:n])
		if err != nil {
			s.log.Debug("Skipping report", zap.Error(err), zap.Binary("report", buf[:n]))
			continue
		}
		if !ok {
			continue
		}
		if err := s.apply(h, state, next); err != nil {
			return err
		}
		state = next
	}
}

// apply reports releases before presses.
func (s *HIDSource) apply(h Handler, prev, next KeyBits) error {
	pressed, released := prev.Diff(next)
	if ce := s.log.Check(zap.DebugLevel, "Report"); ce != nil {
		ce.Write(zap.Binary("held", next.PressedKeys()), zap.Int("pressed", len(pressed)), zap.Int("released", len(released)))
	}
	for _, usage := range released {
		if err := h.OnKeyUp(uint16(usage)); err != nil {
			return err
		}
	}
	for _, usage := range pressed {
		if err := h.OnKeyDown(uint16(usage)); err != nil {
			return err
		}
	}
	return nil
}

type HIDDevice struct {
	Name      string
	Path      string
	VendorID  uint16
	ProductID uint16
}

// HIDKeyboards lists HID interfaces with the keyboard usage. Zero IDs match
// any device. hid.Init must have been called.
func HIDKeyboards(vendorID, productID uint16) ([]HIDDevice, error) {
	var devices []HIDDevice
	err := hid.Enumerate(vendorID, productID, func(info *hid.DeviceInfo) error {
		if info.UsagePage != usagePageGenericDesktop || info.Usage != usageKeyboard {
			return nil
		}
		devices = append(devices, HIDDevice{
			Name:      hidDeviceName(info),
			Path:      info.Path,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate HID devices: %w", err)
	}
	return devices, nil
}

func hidDeviceName(device *hid.DeviceInfo) string {
	var parts []string
	if device.MfrStr != "" {
		parts = append(parts, device.MfrStr)
	}
	if device.ProductStr != "" {
		parts = append(parts, device.ProductStr)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%04x:%04x", device.VendorID, device.ProductID)
	}
	return strings.Join(parts, " ")
}
