package bridge

import (
	"time"

	"github.com/neuroplastio/keybridge/internal/combo"
	"github.com/neuroplastio/keybridge/internal/emitsvc"
	"github.com/neuroplastio/keybridge/internal/inputsvc"
	"github.com/neuroplastio/keybridge/internal/keymap"
	"go.uber.org/zap"
)

// Mode selects the pipelines a bridge runs.
type Mode struct {
	Keys   bool
	Clicks bool
}

var (
	ModeKeys   = Mode{Keys: true}
	ModeClicks = Mode{Clicks: true}
	ModeAll    = Mode{Keys: true, Clicks: true}
)

// Listener turns raw input into records. Every record is written to the
// emitter first and then published for the click file and the journal.
type Listener struct {
	log        *zap.Logger
	mode       Mode
	keymap     *keymap.Keymap
	normalizer *combo.Normalizer
	emitter    *emitsvc.Emitter
	publish    func(emitsvc.Record)
}

var _ inputsvc.Handler = (*Listener)(nil)

func NewListener(log *zap.Logger, mode Mode, km *keymap.Keymap, now func() time.Time, emitter *emitsvc.Emitter, publish func(emitsvc.Record)) *Listener {
	if publish == nil {
		publish = func(emitsvc.Record) {}
	}
	return &Listener{
		log:        log,
		mode:       mode,
		keymap:     km,
		normalizer: combo.NewNormalizer(now),
		emitter:    emitter,
		publish:    publish,
	}
}

// OnReady announces the key hook. The click pipeline has no ready line.
func (l *Listener) OnReady() error {
	l.log.Info("Input ready", zap.Stringer("keymap", l.keymap), zap.Bool("keys", l.mode.Keys), zap.Bool("clicks", l.mode.Clicks))
	if !l.mode.Keys {
		return nil
	}
	return l.emitter.Ready()
}

func (l *Listener) OnKeyDown(code uint16) error {
	if !l.mode.Keys {
		return nil
	}
	key := l.keymap.Classify(code)
	if !key.Recognized() {
		l.log.Debug("Unrecognized key", zap.Uint16("code", code))
		return nil
	}
	emission, ok := l.normalizer.KeyDown(key)
	if !ok {
		return nil
	}
	rec := emitsvc.NewComboRecord(emission)
	return l.emit(emitsvc.Record{Combo: &rec})
}

func (l *Listener) OnKeyUp(code uint16) error {
	if !l.mode.Keys {
		return nil
	}
	l.normalizer.KeyUp(l.keymap.Classify(code))
	return nil
}

func (l *Listener) OnClick(click inputsvc.Click) error {
	if !l.mode.Clicks {
		return nil
	}
	rec := emitsvc.NewClickRecord(click.X, click.Y, click.Button, click.Time)
	return l.emit(emitsvc.Record{Click: &rec})
}

func (l *Listener) emit(rec emitsvc.Record) error {
	if err := l.emitter.Emit(rec); err != nil {
		return err
	}
	l.publish(rec)
	return nil
}

// Pressed reports the keys currently held.
func (l *Listener) Pressed() []string {
	return l.normalizer.Pressed()
}
