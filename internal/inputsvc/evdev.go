package inputsvc

import (
	"fmt"
	"time"
)

const defaultEvdevPollInterval = 2 * time.Second

// Button codes from linux/input-event-codes.h.
const (
	evdevBtnLeft   = 0x110
	evdevBtnRight  = 0x111
	evdevBtnMiddle = 0x112
	evdevBtnTask   = 0x117
)

type EvdevConfig struct {
	// Devices are event node paths. Empty means every keyboard and mouse
	// udev reports.
	Devices []string `json:"devices,omitempty"`
	// Grab takes exclusive access, hiding events from other readers.
	Grab         bool   `json:"grab"`
	PollInterval string `json:"pollInterval,omitempty"`
}

func (c EvdevConfig) pollInterval() (time.Duration, error) {
	if c.PollInterval == "" {
		return defaultEvdevPollInterval, nil
	}
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid evdev poll interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("evdev poll interval must be positive, got %s", d)
	}
	return d, nil
}

type EvdevDevice struct {
	Name string
	Path string
}

// evdevEvent is an EV_KEY event.
type evdevEvent struct {
	code  uint16
	value int32
	time  time.Time
}

// dispatchEvdev forwards key events: value 1 is a press, 2 an autorepeat
// and 0 a release. Mouse button presses become clicks without a position.
func dispatchEvdev(h Handler, ev evdevEvent) error {
	if ev.code >= evdevBtnLeft && ev.code <= evdevBtnTask {
		if ev.value != 1 {
			return nil
		}
		return h.OnClick(Click{
			Button: evdevButtonName(ev.code),
			Time:   ev.time,
		})
	}
	switch ev.value {
	case 1, 2:
		return h.OnKeyDown(ev.code)
	case 0:
		return h.OnKeyUp(ev.code)
	}
	return nil
}

func evdevButtonName(code uint16) string {
	switch code {
	case evdevBtnLeft:
		return "left"
	case evdevBtnRight:
		return "right"
	case evdevBtnMiddle:
		return "middle"
	default:
		return "unknown"
	}
}
