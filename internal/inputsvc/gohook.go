package inputsvc

import (
	"context"
	"runtime"
	"time"

	"github.com/neuroplastio/keybridge/internal/keymap"
	hook "github.com/robotn/gohook"
	"go.uber.org/zap"
)

type GohookConfig struct {
	// Keymap overrides the platform default. "uiohook" reads the portable
	// Keycode field; every other table reads Rawcode.
	Keymap string `json:"keymap"`
}

// GohookSource listens through libuiohook, which works on Windows, macOS
// and X11.
type GohookSource struct {
	log    *zap.Logger
	now    func() time.Time
	keymap *keymap.Keymap
	useRaw bool
}

func NewGohookSource(log *zap.Logger, now func() time.Time, cfg GohookConfig) (*GohookSource, error) {
	def := keymap.UIOhook
	if runtime.GOOS == "windows" {
		def = keymap.VK
	}
	km, err := keymapOrDefault(cfg.Keymap, def)
	if err != nil {
		return nil, err
	}
	return &GohookSource{
		log:    log,
		now:    now,
		keymap: km,
		useRaw: km != keymap.UIOhook,
	}, nil
}

func (s *GohookSource) Keymap() *keymap.Keymap {
	return s.keymap
}

func (s *GohookSource) Start(ctx context.Context, h Handler) error {
	events := hook.Start()
	defer hook.End()
	s.log.Info("Hook started", zap.Stringer("keymap", s.keymap))

	if err := h.OnReady(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				s.log.Info("Hook event channel closed")
				return nil
			}
			if err := s.dispatch(h, ev); err != nil {
				return err
			}
		}
	}
}

// dispatch maps libuiohook event kinds: KeyHold is a key press (repeated
// while held), KeyDown is a typed character and is ignored, MouseHold is a
// button press.
func (s *GohookSource) dispatch(h Handler, ev hook.Event) error {
	switch ev.Kind {
	case hook.KeyHold:
		return h.OnKeyDown(s.code(ev))
	case hook.KeyUp:
		return h.OnKeyUp(s.code(ev))
	case hook.MouseHold:
		at := ev.When
		if at.IsZero() {
			at = s.now()
		}
		return h.OnClick(Click{
			X:      int(ev.X),
			Y:      int(ev.Y),
			Button: buttonName(ev.Button),
			Time:   at,
		})
	}
	return nil
}

func (s *GohookSource) code(ev hook.Event) uint16 {
	if s.useRaw {
		return ev.Rawcode
	}
	return ev.Keycode
}
