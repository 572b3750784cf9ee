package input

import "github.com/lixenwraith/textray/terminal"

// KeyTable maps keys to intents
type KeyTable struct {
	// Special keys (Ctrl+*, arrows)
	SpecialKeys map[terminal.Key]Intent

	// Printable rune bindings, case-sensitive
	Runes map[rune]Intent
}

// DefaultKeyTable returns the default key bindings
func DefaultKeyTable() *KeyTable {
	return &KeyTable{
		SpecialKeys: map[terminal.Key]Intent{
			terminal.KeyUp:    IntentForward,
			terminal.KeyDown:  IntentBack,
			terminal.KeyLeft:  IntentTurnLeft,
			terminal.KeyRight: IntentTurnRight,
			terminal.KeyCtrlC: IntentQuit,
			terminal.KeyCtrlD: IntentQuit,
			terminal.KeyCtrlL: IntentRedraw,
		},

		Runes: map[rune]Intent{
			'w': IntentForward,
			's': IntentBack,
			'a': IntentStrafeLeft,
			'd': IntentStrafeRight,
			'q': IntentTurnLeft,
			'e': IntentTurnRight,
			'z': IntentZoomIn,
			'x': IntentZoomOut,
			'c': IntentZoomReset,
			'Q': IntentQuit,
			'P': IntentShutdown,
		},
	}
}

// Lookup returns the intent bound to a key event, IntentNone when unbound
func (kt *KeyTable) Lookup(ev terminal.Event) Intent {
	if ev.Type != terminal.EventKey {
		return IntentNone
	}
	if ev.Key == terminal.KeyRune {
		return kt.Runes[ev.Rune]
	}
	return kt.SpecialKeys[ev.Key]
}

// Clone returns a deep copy
func (kt *KeyTable) Clone() *KeyTable {
	return &KeyTable{
		SpecialKeys: cloneKeyMap(kt.SpecialKeys),
		Runes:       cloneRuneMap(kt.Runes),
	}
}

func cloneRuneMap(m map[rune]Intent) map[rune]Intent {
	c := make(map[rune]Intent, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneKeyMap(m map[terminal.Key]Intent) map[terminal.Key]Intent {
	c := make(map[terminal.Key]Intent, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
