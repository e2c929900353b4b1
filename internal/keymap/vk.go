package keymap

// Windows virtual-key codes.
const (
	vkShift    = 0x10
	vkControl  = 0x11
	vkMenu     = 0x12
	vkLWin     = 0x5B
	vkRWin     = 0x5C
	vkLShift   = 0xA0
	vkRShift   = 0xA1
	vkLControl = 0xA2
	vkRControl = 0xA3
	vkLMenu    = 0xA4
	vkRMenu    = 0xA5
)

var VK = newKeymap("vk",
	modifier("Ctrl", vkLControl, vkRControl, vkControl),
	modifier("Shift", vkLShift, vkRShift, vkShift),
	modifier("Alt", vkLMenu, vkRMenu, vkMenu),
	modifier("Cmd", vkLWin, vkRWin),
	run('0', "0123456789"),
	run('A', "ABCDEFGHIJKLMNOPQRSTUVWXYZ"),
	symbols(map[rune]uint16{
		'`':  192,
		'-':  189,
		'=':  187,
		'[':  219,
		']':  221,
		'\\': 220,
		';':  186,
		'\'': 222,
		',':  188,
		'.':  190,
		'/':  191,
	}),
)
