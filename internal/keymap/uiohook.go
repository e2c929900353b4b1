package keymap

// libuiohook virtual codes, reported by gohook as Event.Keycode on every
// platform. The main block follows PC scan code set 1; right-hand modifiers
// carry the 0x0E extended prefix.
const (
	vcControlL = 0x001D
	vcControlR = 0x0E1D
	vcShiftL   = 0x002A
	vcShiftR   = 0x0036
	vcAltL     = 0x0038
	vcAltR     = 0x0E38
	vcMetaL    = 0x0E5B
	vcMetaR    = 0x0E5C
)

var UIOhook = newKeymap("uiohook",
	modifier("Ctrl", vcControlL, vcControlR),
	modifier("Shift", vcShiftL, vcShiftR),
	modifier("Alt", vcAltL, vcAltR),
	modifier("Cmd", vcMetaL, vcMetaR),
	run(0x0002, "1234567890"),
	run(0x0010, "QWERTYUIOP"),
	run(0x001E, "ASDFGHJKL"),
	run(0x002C, "ZXCVBNM"),
	symbols(map[rune]uint16{
		'`':  0x0029,
		'-':  0x000C,
		'=':  0x000D,
		'[':  0x001A,
		']':  0x001B,
		'\\': 0x002B,
		';':  0x0027,
		'\'': 0x0028,
		',':  0x0033,
		'.':  0x0034,
		'/':  0x0035,
	}),
)
