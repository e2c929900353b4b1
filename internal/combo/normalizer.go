// Package combo turns key down/up transitions into canonical combo strings
// such as "Ctrl + Shift + A".
package combo

import (
	"slices"
	"strings"
	"time"
)

const (
	// DebounceWindow is how long an identical combo string is held back
	// after it was last emitted.
	DebounceWindow = 350 * time.Millisecond

	Separator = " + "
)

// Emission is a combo produced by a key-down.
type Emission struct {
	Combo string
	Time  time.Time
}

// Seconds returns the emission time as fractional seconds since the epoch.
func (e Emission) Seconds() float64 {
	return float64(e.Time.Unix()) + float64(e.Time.Nanosecond())/float64(time.Second)
}

// Normalizer tracks held keys and debounce state for one listener. It is not
// safe for concurrent use; events must be fed in delivery order.
type Normalizer struct {
	now     func() time.Time
	pressed map[string]Key

	lastCombo string
	lastTime  time.Time
}

func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{
		now:     now,
		pressed: make(map[string]Key, 8),
	}
}

// KeyDown records key as held and reports the combo to emit, if any.
func (n *Normalizer) KeyDown(key Key) (Emission, bool) {
	if !key.Recognized() {
		return Emission{}, false
	}
	n.pressed[key.Name] = key

	if !n.hasRealModifier() {
		return Emission{}, false
	}
	if len(n.pressed) < 2 {
		return Emission{}, false
	}

	combo := n.combo()
	now := n.now()
	if combo == n.lastCombo && now.Sub(n.lastTime) < DebounceWindow {
		return Emission{}, false
	}
	n.lastCombo = combo
	n.lastTime = now
	return Emission{Combo: combo, Time: now}, true
}

func (n *Normalizer) KeyUp(key Key) {
	if !key.Recognized() {
		return
	}
	delete(n.pressed, key.Name)
}

// Pressed returns the names of held keys in combo order.
func (n *Normalizer) Pressed() []string {
	mods, keys := n.split()
	return append(mods, keys...)
}

// hasRealModifier reports whether Ctrl, Alt or Cmd is held. Shift on its own
// is ordinary typing.
func (n *Normalizer) hasRealModifier() bool {
	for _, name := range []string{Ctrl, Alt, Cmd} {
		if _, ok := n.pressed[name]; ok {
			return true
		}
	}
	return false
}

func (n *Normalizer) combo() string {
	return strings.Join(n.Pressed(), Separator)
}

func (n *Normalizer) split() (mods, keys []string) {
	mods = make([]string, 0, len(modifierOrder))
	for _, name := range modifierOrder {
		if _, ok := n.pressed[name]; ok {
			mods = append(mods, name)
		}
	}
	keys = make([]string, 0, len(n.pressed))
	for name, key := range n.pressed {
		if key.IsModifier() {
			continue
		}
		keys = append(keys, name)
	}
	slices.Sort(keys)
	return mods, keys
}
