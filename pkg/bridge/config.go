package bridge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neuroplastio/keybridge/internal/inputsvc"
)

// Config is loaded from keybridge.yml in the user config directory. Live
// reload applies to log.level and clicks.file.
type Config struct {
	Backend string        `json:"backend"`
	Keymap  string        `json:"keymap,omitempty"`
	Log     LogConfig     `json:"log"`
	Clicks  ClicksConfig  `json:"clicks"`
	Journal JournalConfig `json:"journal"`

	Evdev inputsvc.EvdevConfig `json:"evdev"`
	HID   inputsvc.HIDConfig   `json:"hid"`
	// Script is set by replay and never read from the file.
	Script string `json:"-"`
}

type LogConfig struct {
	Level string `json:"level"`
}

type ClicksConfig struct {
	Enabled bool   `json:"enabled"`
	File    string `json:"file"`
}

type JournalConfig struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir"`
}

// DefaultConfig keeps everything inside dataDir except the click file,
// which hosts expect in the working directory.
func DefaultConfig(dataDir string) Config {
	return Config{
		Backend: inputsvc.BackendGohook,
		Log: LogConfig{
			Level: "info",
		},
		Clicks: ClicksConfig{
			Enabled: true,
			File:    "clicks.json",
		},
		Journal: JournalConfig{
			Enabled: false,
			Dir:     filepath.Join(dataDir, "journal"),
		},
	}
}

// DefaultConfigDir is keybridge under the user config directory
// ($XDG_CONFIG_HOME on Linux).
func DefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "keybridge"), nil
}

// BackendConfig returns the configuration block handed to the selected
// input backend.
func (c Config) BackendConfig() (json.RawMessage, error) {
	var section any
	switch c.Backend {
	case inputsvc.BackendGohook:
		section = inputsvc.GohookConfig{Keymap: c.Keymap}
	case inputsvc.BackendEvdev:
		section = c.Evdev
	case inputsvc.BackendHID:
		section = c.HID
	case inputsvc.BackendScript:
		section = inputsvc.ScriptConfig{Path: c.Script, Keymap: c.Keymap}
	default:
		return nil, nil
	}
	raw, err := json.Marshal(section)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s config: %w", c.Backend, err)
	}
	return raw, nil
}
