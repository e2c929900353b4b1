package keymap

// USB HID Keyboard/Keypad page usage IDs. Modifier usages 0xE0-0xE7 follow
// the bit order of the boot report modifier byte.
const (
	HIDLeftCtrl   = 0xE0
	HIDLeftShift  = 0xE1
	HIDLeftAlt    = 0xE2
	HIDLeftGUI    = 0xE3
	HIDRightCtrl  = 0xE4
	HIDRightShift = 0xE5
	HIDRightAlt   = 0xE6
	HIDRightGUI   = 0xE7
)

var HID = newKeymap("hid",
	modifier("Ctrl", HIDLeftCtrl, HIDRightCtrl),
	modifier("Shift", HIDLeftShift, HIDRightShift),
	modifier("Alt", HIDLeftAlt, HIDRightAlt),
	modifier("Cmd", HIDLeftGUI, HIDRightGUI),
	run(0x04, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"),
	run(0x1E, "1234567890"),
	symbols(map[rune]uint16{
		'-':  0x2D,
		'=':  0x2E,
		'[':  0x2F,
		']':  0x30,
		'\\': 0x31,
		';':  0x33,
		'\'': 0x34,
		'`':  0x35,
		',':  0x36,
		'.':  0x37,
		'/':  0x38,
	}),
)
