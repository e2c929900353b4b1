package inputsvc

import (
	"fmt"

	"github.com/neuroplastio/keybridge/internal/keymap"
)

const (
	bootReportSize = 8
	// usageErrorRollOver fills every key slot when too many keys are held.
	usageErrorRollOver = 0x01
)

// KeyBits is a 256-bit bitmap of pressed keyboard usages.
type KeyBits [32]byte

func (k *KeyBits) set(usage byte) {
	k[usage/8] |= 1 << (usage % 8)
}

func (k KeyBits) PressedKeys() []byte {
	keys := make([]byte, 0, 8)
	for byteIndex, b := range k {
		for bitIndex := 0; bitIndex < 8; bitIndex++ {
			if b&(1<<bitIndex) != 0 {
				keys = append(keys, byte(byteIndex*8+bitIndex))
			}
		}
	}
	return keys
}

// Diff returns usages pressed in next but not in k, and released in next
// but pressed in k, both in ascending order.
func (k KeyBits) Diff(next KeyBits) (pressed, released []byte) {
	for i := range k {
		changed := k[i] ^ next[i]
		if changed == 0 {
			continue
		}
		for bitIndex := 0; bitIndex < 8; bitIndex++ {
			mask := byte(1 << bitIndex)
			if changed&mask == 0 {
				continue
			}
			usage := byte(i*8 + bitIndex)
			if next[i]&mask != 0 {
				pressed = append(pressed, usage)
			} else {
				released = append(released, usage)
			}
		}
	}
	return pressed, released
}

// ParseBootReport decodes a boot protocol keyboard report: a modifier
// bitmap byte, a reserved byte and six key slots. A 9-byte report is taken
// to carry a leading report ID. ok is false for a rollover report, which
// carries no key state.
func ParseBootReport(report []byte) (keys KeyBits, ok bool, err error) {
	if len(report) == bootReportSize+1 {
		report = report[1:]
	}
	if len(report) != bootReportSize {
		return KeyBits{}, false, fmt.Errorf("unexpected boot report size %d", len(report))
	}
	for bit := 0; bit < 8; bit++ {
		if report[0]&(1<<bit) != 0 {
			keys.set(byte(keymap.HIDLeftCtrl) + byte(bit))
		}
	}
	for _, usage := range report[2:] {
		switch usage {
		case 0x00:
			continue
		case usageErrorRollOver:
			return KeyBits{}, false, nil
		}
		keys.set(usage)
	}
	return keys, true, nil
}
