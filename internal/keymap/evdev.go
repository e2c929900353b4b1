package keymap

// Linux input event codes (linux/input-event-codes.h). Kept local so the
// table builds on every platform; only the evdev source is Linux-only.
const (
	evKey1          = 2
	evKeyMinus      = 12
	evKeyEqual      = 13
	evKeyQ          = 16
	evKeyLeftBrace  = 26
	evKeyRightBrace = 27
	evKeyLeftCtrl   = 29
	evKeyA          = 30
	evKeySemicolon  = 39
	evKeyApostrophe = 40
	evKeyGrave      = 41
	evKeyLeftShift  = 42
	evKeyBackslash  = 43
	evKeyZ          = 44
	evKeyComma      = 51
	evKeyDot        = 52
	evKeySlash      = 53
	evKeyRightShift = 54
	evKeyLeftAlt    = 56
	evKeyRightCtrl  = 97
	evKeyRightAlt   = 100
	evKeyLeftMeta   = 125
	evKeyRightMeta  = 126
)

var Evdev = newKeymap("evdev",
	modifier("Ctrl", evKeyLeftCtrl, evKeyRightCtrl),
	modifier("Shift", evKeyLeftShift, evKeyRightShift),
	modifier("Alt", evKeyLeftAlt, evKeyRightAlt),
	modifier("Cmd", evKeyLeftMeta, evKeyRightMeta),
	run(evKey1, "1234567890"),
	run(evKeyQ, "QWERTYUIOP"),
	run(evKeyA, "ASDFGHJKL"),
	run(evKeyZ, "ZXCVBNM"),
	symbols(map[rune]uint16{
		'`':  evKeyGrave,
		'-':  evKeyMinus,
		'=':  evKeyEqual,
		'[':  evKeyLeftBrace,
		']':  evKeyRightBrace,
		'\\': evKeyBackslash,
		';':  evKeySemicolon,
		'\'': evKeyApostrophe,
		',':  evKeyComma,
		'.':  evKeyDot,
		'/':  evKeySlash,
	}),
)
