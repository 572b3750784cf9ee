package input

import "strings"

// actionRegistry maps canonical action names to intents
// Used by the keymap loader to resolve TOML action strings to bindings
var actionRegistry = map[string]Intent{
	// Unbind sentinel
	"none": IntentNone,

	"forward":      IntentForward,
	"back":         IntentBack,
	"strafe_left":  IntentStrafeLeft,
	"strafe_right": IntentStrafeRight,
	"turn_left":    IntentTurnLeft,
	"turn_right":   IntentTurnRight,

	"zoom_in":    IntentZoomIn,
	"zoom_out":   IntentZoomOut,
	"zoom_reset": IntentZoomReset,
	"redraw":     IntentRedraw,

	"quit":     IntentQuit,
	"shutdown": IntentShutdown,
}

// intentNames is the reverse lookup for String
var intentNames map[Intent]string

func init() {
	intentNames = make(map[Intent]string, len(actionRegistry))
	for name, intent := range actionRegistry {
		intentNames[intent] = name
	}
}

// IntentByName resolves an action name, case-insensitive
func IntentByName(name string) (Intent, bool) {
	i, ok := actionRegistry[strings.ToLower(strings.TrimSpace(name))]
	return i, ok
}
