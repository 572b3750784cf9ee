// Package input maps decoded key events to viewer intents through a remappable key table
package input

// Intent discriminates semantic actions
type Intent uint8

const (
	IntentNone Intent = iota

	// Pose intents, applied one per tick
	IntentForward
	IntentBack
	IntentStrafeLeft
	IntentStrafeRight
	IntentTurnLeft
	IntentTurnRight

	// View intents, applied immediately
	IntentZoomIn
	IntentZoomOut
	IntentZoomReset
	IntentRedraw // Ctrl+L, repaint after client-side corruption

	// System intents
	IntentQuit
	IntentShutdown
)

// IsPose reports whether the intent changes position or heading
func (i Intent) IsPose() bool {
	return i >= IntentForward && i <= IntentTurnRight
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "none"
}
