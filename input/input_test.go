package input

import (
	"testing"

	"github.com/lixenwraith/textray/terminal"
)

func runeEvent(r rune) terminal.Event {
	return terminal.Event{Type: terminal.EventKey, Key: terminal.KeyRune, Rune: r}
}

func keyEvent(k terminal.Key) terminal.Event {
	return terminal.Event{Type: terminal.EventKey, Key: k}
}

func TestDefaultBindings(t *testing.T) {
	kt := DefaultKeyTable()
	tests := []struct {
		ev   terminal.Event
		want Intent
	}{
		{runeEvent('w'), IntentForward},
		{runeEvent('s'), IntentBack},
		{runeEvent('a'), IntentStrafeLeft},
		{runeEvent('d'), IntentStrafeRight},
		{runeEvent('q'), IntentTurnLeft},
		{runeEvent('e'), IntentTurnRight},
		{runeEvent('z'), IntentZoomIn},
		{runeEvent('x'), IntentZoomOut},
		{runeEvent('c'), IntentZoomReset},
		{runeEvent('Q'), IntentQuit},
		{runeEvent('P'), IntentShutdown},
		{runeEvent('W'), IntentNone},
		{runeEvent('?'), IntentNone},
		{keyEvent(terminal.KeyUp), IntentForward},
		{keyEvent(terminal.KeyDown), IntentBack},
		{keyEvent(terminal.KeyLeft), IntentTurnLeft},
		{keyEvent(terminal.KeyRight), IntentTurnRight},
		{keyEvent(terminal.KeyCtrlC), IntentQuit},
		{keyEvent(terminal.KeyCtrlD), IntentQuit},
		{keyEvent(terminal.KeyCtrlL), IntentRedraw},
		{keyEvent(terminal.KeyEnter), IntentNone},
	}
	for _, tt := range tests {
		if got := kt.Lookup(tt.ev); got != tt.want {
			t.Errorf("Lookup(%+v): expected %v, got %v", tt.ev, tt.want, got)
		}
	}
}

func TestIsPose(t *testing.T) {
	pose := []Intent{IntentForward, IntentBack, IntentStrafeLeft, IntentStrafeRight, IntentTurnLeft, IntentTurnRight}
	for _, i := range pose {
		if !i.IsPose() {
			t.Errorf("Expected %v to be a pose intent", i)
		}
	}
	for _, i := range []Intent{IntentNone, IntentZoomIn, IntentZoomReset, IntentRedraw, IntentQuit, IntentShutdown} {
		if i.IsPose() {
			t.Errorf("Expected %v not to be a pose intent", i)
		}
	}
}

func TestParseAndMergeKeyMap(t *testing.T) {
	override, err := ParseKeyMap(
		map[string]string{"k": "forward", "w": "none", "space": "redraw"},
		map[string]string{"page_up": "zoom_in", "UP": "none"},
	)
	if err != nil {
		t.Fatalf("ParseKeyMap failed: %v", err)
	}
	base := DefaultKeyTable()
	merged := MergeKeyTable(base, override)

	if got := merged.Lookup(runeEvent('k')); got != IntentForward {
		t.Errorf("Expected k bound to forward, got %v", got)
	}
	if got := merged.Lookup(runeEvent('w')); got != IntentNone {
		t.Errorf("Expected w unbound, got %v", got)
	}
	if got := merged.Lookup(runeEvent(' ')); got != IntentRedraw {
		t.Errorf("Expected space bound to redraw, got %v", got)
	}
	if got := merged.Lookup(keyEvent(terminal.KeyPageUp)); got != IntentZoomIn {
		t.Errorf("Expected page_up bound to zoom_in, got %v", got)
	}
	if got := merged.Lookup(keyEvent(terminal.KeyUp)); got != IntentNone {
		t.Errorf("Expected up unbound, got %v", got)
	}
	if got := base.Lookup(runeEvent('w')); got != IntentForward {
		t.Error("Merge modified the base table")
	}
}

func TestParseKeyMapErrors(t *testing.T) {
	tests := []struct {
		name    string
		runes   map[string]string
		special map[string]string
	}{
		{"multi-char rune", map[string]string{"ww": "forward"}, nil},
		{"unknown action", map[string]string{"w": "jump"}, nil},
		{"unknown key", nil, map[string]string{"f13": "quit"}},
		{"unknown special action", nil, map[string]string{"up": "fly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseKeyMap(tt.runes, tt.special); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestIntentNames(t *testing.T) {
	for name, intent := range actionRegistry {
		if intent.String() != name {
			t.Errorf("Expected %q, got %q", name, intent.String())
		}
		got, ok := IntentByName(" " + name + " ")
		if !ok || got != intent {
			t.Errorf("IntentByName(%q) = %v, %v", name, got, ok)
		}
	}
}
