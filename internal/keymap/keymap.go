// Package keymap classifies platform raw key codes into canonical keys.
//
// Every input backend delivers codes from one table: Windows virtual-key
// codes, Linux evdev codes, libuiohook virtual codes or USB HID usages.
package keymap

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/neuroplastio/keybridge/internal/combo"
)

var ErrUnknownKeymap = errors.New("unknown keymap")

type Entry struct {
	Code uint16
	Key  combo.Key
}

// Keymap is an immutable raw code table.
type Keymap struct {
	name    string
	entries []Entry
	keys    map[uint16]combo.Key
	codes   map[string]uint16
}

func newKeymap(name string, entries ...[]Entry) *Keymap {
	m := &Keymap{
		name:  name,
		keys:  make(map[uint16]combo.Key),
		codes: make(map[string]uint16),
	}
	for _, group := range entries {
		for _, e := range group {
			if _, ok := m.keys[e.Code]; ok {
				panic(fmt.Sprintf("keymap %s: duplicate code 0x%x", name, e.Code))
			}
			m.keys[e.Code] = e.Key
			m.entries = append(m.entries, e)
			// first registered code is the one scripts resolve to
			if _, ok := m.codes[e.Key.Name]; !ok {
				m.codes[e.Key.Name] = e.Code
			}
		}
	}
	slices.SortFunc(m.entries, func(a, b Entry) int {
		return int(a.Code) - int(b.Code)
	})
	return m
}

func (m *Keymap) Name() string {
	return m.name
}

// Classify maps a raw code to its key, or combo.Unrecognized.
func (m *Keymap) Classify(code uint16) combo.Key {
	return m.keys[code]
}

// Code resolves a canonical key name back to a raw code.
func (m *Keymap) Code(name string) (uint16, bool) {
	code, ok := m.codes[name]
	return code, ok
}

// Entries lists the table ordered by code.
func (m *Keymap) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Keymap) String() string {
	return m.name
}

var all = []*Keymap{VK, Evdev, UIOhook, HID}

// Names lists the registered keymaps.
func Names() []string {
	names := make([]string, 0, len(all))
	for _, m := range all {
		names = append(names, m.name)
	}
	return names
}

// ByName looks up a keymap. Case and separators are ignored, so "VK",
// "ui-ohook" and "uiohook" all resolve.
func ByName(name string) (*Keymap, error) {
	want := normalizeName(name)
	for _, m := range all {
		if normalizeName(m.name) == want {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownKeymap, name, strings.Join(Names(), ", "))
}

func normalizeName(name string) string {
	return strings.ReplaceAll(strcase.ToSnake(strings.TrimSpace(name)), "_", "")
}

func modifier(name string, codes ...uint16) []Entry {
	key := combo.Modifier(name)
	entries := make([]Entry, 0, len(codes))
	for _, code := range codes {
		entries = append(entries, Entry{Code: code, Key: key})
	}
	return entries
}

// run assigns consecutive codes starting at first to the characters of
// chars.
func run(first uint16, chars string) []Entry {
	entries := make([]Entry, 0, len(chars))
	for i, r := range chars {
		entries = append(entries, Entry{Code: first + uint16(i), Key: character(r)})
	}
	return entries
}

func symbols(table map[rune]uint16) []Entry {
	entries := make([]Entry, 0, len(table))
	for _, r := range combo.Symbols {
		code, ok := table[r]
		if !ok {
			continue
		}
		entries = append(entries, Entry{Code: code, Key: combo.Symbol(r)})
	}
	return entries
}

func character(r rune) combo.Key {
	for _, classify := range []func(rune) combo.Key{combo.Letter, combo.Digit, combo.Symbol} {
		if key := classify(r); key.Recognized() {
			return key
		}
	}
	panic(fmt.Sprintf("keymap: %q is not a key character", r))
}
