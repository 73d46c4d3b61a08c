//go:build windows

package windows

// vkNames maps Windows virtual-key codes to the normalized key names
// used in macro payloads. Printable keys are taken from the event's
// character instead.
var vkNames = map[uint16]string{
	0x08: "backspace",
	0x09: "tab",
	0x0D: "enter",
	0x10: "shift",
	0x11: "ctrl",
	0x12: "alt",
	0x13: "pause",
	0x14: "caps_lock",
	0x1B: "escape",
	0x20: "space",
	0x21: "page_up",
	0x22: "page_down",
	0x23: "end",
	0x24: "home",
	0x25: "left",
	0x26: "up",
	0x27: "right",
	0x28: "down",
	0x2C: "print_screen",
	0x2D: "insert",
	0x2E: "delete",
	0x5B: "cmd",
	0x5C: "cmd_r",
	0x70: "f1",
	0x71: "f2",
	0x72: "f3",
	0x73: "f4",
	0x74: "f5",
	0x75: "f6",
	0x76: "f7",
	0x77: "f8",
	0x78: "f9",
	0x79: "f10",
	0x7A: "f11",
	0x7B: "f12",
	0x90: "num_lock",
	0x91: "scroll_lock",
	0xA0: "shift",
	0xA1: "shift_r",
	0xA2: "ctrl",
	0xA3: "ctrl_r",
	0xA4: "alt",
	0xA5: "alt_r",
}

// keyName normalizes a key event to a macro key name. Named keys win
// over the character; unnamed printable keys use their character.
func keyName(rawcode uint16, char rune) string {
	if name, ok := vkNames[rawcode]; ok {
		return name
	}
	if char != 0 && char != 65535 {
		return string(char)
	}
	return ""
}
