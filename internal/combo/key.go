package combo

import "fmt"

type Kind uint8

const (
	KindUnrecognized Kind = iota
	KindModifier
	KindLetter
	KindDigit
	KindSymbol
)

func (k Kind) String() string {
	switch k {
	case KindModifier:
		return "modifier"
	case KindLetter:
		return "letter"
	case KindDigit:
		return "digit"
	case KindSymbol:
		return "symbol"
	default:
		return "unrecognized"
	}
}

const (
	Ctrl  = "Ctrl"
	Shift = "Shift"
	Alt   = "Alt"
	Cmd   = "Cmd"
)

// modifierOrder is the order modifiers appear in a combo string.
var modifierOrder = [...]string{Ctrl, Shift, Alt, Cmd}

// Symbols lists every punctuation character a Key can carry.
const Symbols = "`-=[]\\;',./"

// Key is the canonical identity of a physical key. The zero value is
// Unrecognized.
type Key struct {
	Kind Kind
	Name string
}

var Unrecognized = Key{}

func Modifier(name string) Key {
	switch name {
	case Ctrl, Shift, Alt, Cmd:
		return Key{Kind: KindModifier, Name: name}
	}
	return Unrecognized
}

func Letter(r rune) Key {
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	if r < 'A' || r > 'Z' {
		return Unrecognized
	}
	return Key{Kind: KindLetter, Name: string(r)}
}

func Digit(r rune) Key {
	if r < '0' || r > '9' {
		return Unrecognized
	}
	return Key{Kind: KindDigit, Name: string(r)}
}

func Symbol(r rune) Key {
	for _, s := range Symbols {
		if s == r {
			return Key{Kind: KindSymbol, Name: string(r)}
		}
	}
	return Unrecognized
}

// ParseKey resolves a canonical name ("Ctrl", "A", "7", "`") to a Key.
func ParseKey(name string) (Key, error) {
	if key := Modifier(name); key.Recognized() {
		return key, nil
	}
	runes := []rune(name)
	if len(runes) == 1 {
		r := runes[0]
		for _, classify := range []func(rune) Key{Letter, Digit, Symbol} {
			if key := classify(r); key.Recognized() {
				return key, nil
			}
		}
	}
	return Unrecognized, fmt.Errorf("unknown key name %q", name)
}

func (k Key) Recognized() bool {
	return k.Kind != KindUnrecognized && k.Name != ""
}

func (k Key) IsModifier() bool {
	return k.Kind == KindModifier
}

func (k Key) String() string {
	if !k.Recognized() {
		return "(unrecognized)"
	}
	return k.Name
}
