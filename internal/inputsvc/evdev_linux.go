//go:build linux

package inputsvc

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/holoplot/go-evdev"
	"github.com/jochenvg/go-udev"
	"github.com/neuroplastio/keybridge/internal/keymap"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EvdevSource reads Linux input event nodes. Devices are rediscovered every
// poll interval; readers of vanished devices exit quietly.
type EvdevSource struct {
	log          *zap.Logger
	config       EvdevConfig
	pollInterval time.Duration
	udev         *udev.Udev
	devices      *xsync.MapOf[string, *evdevDevice]
}

type evdevDevice struct {
	path   string
	name   string
	dev    *evdev.InputDevice
	closed atomic.Bool
}

func (d *evdevDevice) close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.dev.Close()
}

func NewEvdevSource(log *zap.Logger, cfg EvdevConfig) (*EvdevSource, error) {
	interval, err := cfg.pollInterval()
	if err != nil {
		return nil, err
	}
	return &EvdevSource{
		log:          log,
		config:       cfg,
		pollInterval: interval,
		udev:         &udev.Udev{},
		devices:      xsync.NewMapOf[string, *evdevDevice](),
	}, nil
}

func (s *EvdevSource) Keymap() *keymap.Keymap {
	return keymap.Evdev
}

func (s *EvdevSource) Start(ctx context.Context, h Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, ctx := errgroup.WithContext(ctx)
	events := make(chan evdevEvent, 64)

	if err := s.refresh(ctx, group, events, true); err != nil {
		cancel()
		group.Wait()
		return err
	}
	if s.devices.Size() == 0 {
		s.log.Warn("No input devices found yet, waiting for devices to appear")
	}
	group.Go(func() error {
		s.poll(ctx, group, events)
		return nil
	})

	err := s.dispatch(ctx, h, events)
	cancel()
	if werr := group.Wait(); err == nil {
		err = werr
	}
	return err
}

func (s *EvdevSource) dispatch(ctx context.Context, h Handler, events <-chan evdevEvent) error {
	if err := h.OnReady(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if err := dispatchEvdev(h, ev); err != nil {
				return err
			}
		}
	}
}

func (s *EvdevSource) poll(ctx context.Context, group *errgroup.Group, events chan<- evdevEvent) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.refresh(ctx, group, events, false); err != nil {
				s.log.Error("Failed to refresh input devices", zap.Error(err))
			}
		}
	}
}

// refresh opens devices that are not open yet. On the first pass a device
// named in the config that fails to open is fatal.
func (s *EvdevSource) refresh(ctx context.Context, group *errgroup.Group, events chan<- evdevEvent, initial bool) error {
	paths := s.config.Devices
	if len(paths) == 0 {
		var err error
		paths, err = s.discover()
		if err != nil {
			return err
		}
	}
	for _, path := range paths {
		if _, ok := s.devices.Load(path); ok {
			continue
		}
		d, err := s.open(path)
		if err != nil {
			if initial && len(s.config.Devices) > 0 {
				return err
			}
			s.log.Debug("Skipping input device", zap.String("path", path), zap.Error(err))
			continue
		}
		s.devices.Store(path, d)
		s.log.Info("Input device connected", zap.String("path", path), zap.String("name", d.name))

		devCtx, devCancel := context.WithCancel(ctx)
		group.Go(func() error {
			<-devCtx.Done()
			d.close()
			return nil
		})
		group.Go(func() error {
			defer devCancel()
			defer s.devices.Delete(d.path)
			return s.read(devCtx, d, events)
		})
	}
	return nil
}

func (s *EvdevSource) open(path string) (*evdevDevice, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	name, err := dev.Name()
	if err != nil {
		name = filepath.Base(path)
	}
	if s.config.Grab {
		if err := dev.Grab(); err != nil {
			dev.Close()
			return nil, fmt.Errorf("failed to grab %s: %w", path, err)
		}
	}
	return &evdevDevice{path: path, name: name, dev: dev}, nil
}

func (s *EvdevSource) read(ctx context.Context, d *evdevDevice, events chan<- evdevEvent) error {
	for {
		ev, err := d.dev.ReadOne()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Info("Input device disconnected", zap.String("path", d.path), zap.Error(err))
			}
			return nil
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case events <- evdevEvent{
			code:  uint16(ev.Code),
			value: ev.Value,
			time:  time.Unix(int64(ev.Time.Sec), int64(ev.Time.Usec)*int64(time.Microsecond)),
		}:
		}
	}
}

// discover lists keyboard and mouse event nodes known to udev.
func (s *EvdevSource) discover() ([]string, error) {
	e := s.udev.NewEnumerate()
	if err := e.AddMatchSubsystem("input"); err != nil {
		return nil, fmt.Errorf("failed to match input subsystem: %w", err)
	}
	if err := e.AddMatchIsInitialized(); err != nil {
		return nil, fmt.Errorf("failed to match initialized devices: %w", err)
	}
	devices, err := e.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate input devices: %w", err)
	}
	var paths []string
	for _, d := range devices {
		node := d.Devnode()
		if !strings.HasPrefix(filepath.Base(node), "event") {
			continue
		}
		if d.PropertyValue("ID_INPUT_KEYBOARD") != "1" && d.PropertyValue("ID_INPUT_MOUSE") != "1" {
			continue
		}
		paths = append(paths, node)
	}
	sort.Strings(paths)
	return paths, nil
}

// EvdevDevices lists every event node with its device name.
func EvdevDevices() ([]EvdevDevice, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}
	devices := make([]EvdevDevice, 0, len(paths))
	for _, p := range paths {
		devices = append(devices, EvdevDevice{Name: p.Name, Path: p.Path})
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Path < devices[j].Path
	})
	return devices, nil
}
