package terminal

import "testing"

func keys(events []Event) []Key {
	out := make([]Key, len(events))
	for i, ev := range events {
		out[i] = ev.Key
	}
	return out
}

func TestDecoderSequences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Key
	}{
		{"Printable", "wa", []Key{KeyRune, KeyRune}},
		{"Arrows", "\x1b[A\x1b[B\x1b[C\x1b[D", []Key{KeyUp, KeyDown, KeyRight, KeyLeft}},
		{"SS3 arrows", "\x1bOA\x1bOD", []Key{KeyUp, KeyLeft}},
		{"Modified arrow", "\x1b[1;5C", []Key{KeyRight}},
		{"Delete", "\x1b[3~", []Key{KeyDelete}},
		{"Unknown CSI swallowed", "\x1b[99zq", []Key{KeyRune}},
		{"CR LF is one Enter", "\r\n", []Key{KeyEnter}},
		{"CR NUL is one Enter", "\r\x00", []Key{KeyEnter}},
		{"Bare LF", "\n", []Key{KeyEnter}},
		{"Ctrl-C", "\x03", []Key{KeyCtrlC}},
		{"Ctrl-D", "\x04", []Key{KeyCtrlD}},
		{"DEL", "\x7f", []Key{KeyBackspace}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keys(NewDecoder().Feed([]byte(tt.input)))
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("event %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestDecoderEmitsKeyEvents(t *testing.T) {
	events := NewDecoder().Feed([]byte("w\x1b[A\r\n\x03\x1bx\x7f"))
	if len(events) == 0 {
		t.Fatal("Expected events")
	}
	for i, ev := range events {
		if ev.Type != EventKey {
			t.Errorf("event %d: expected EventKey, got %v", i, ev.Type)
		}
	}
}

func TestDecoderSplitSequence(t *testing.T) {
	d := NewDecoder()
	if evs := d.Feed([]byte("\x1b")); len(evs) != 0 {
		t.Fatalf("Expected no events for partial escape, got %v", evs)
	}
	if !d.Pending() {
		t.Fatal("Expected pending bytes")
	}
	if evs := d.Feed([]byte("[")); len(evs) != 0 {
		t.Fatalf("Expected no events for partial CSI, got %v", evs)
	}
	evs := d.Feed([]byte("A"))
	if len(evs) != 1 || evs[0].Key != KeyUp {
		t.Fatalf("Expected KeyUp, got %v", evs)
	}
	if d.Pending() {
		t.Error("Expected buffer drained")
	}
}

func TestDecoderSplitCRLF(t *testing.T) {
	d := NewDecoder()
	if evs := d.Feed([]byte("\r")); len(evs) != 1 || evs[0].Key != KeyEnter {
		t.Fatalf("Expected Enter, got %v", evs)
	}
	evs := d.Feed([]byte("\nx"))
	if len(evs) != 1 || evs[0].Rune != 'x' {
		t.Fatalf("Expected LF swallowed then 'x', got %v", evs)
	}
}

func TestDecoderSplitUTF8(t *testing.T) {
	d := NewDecoder()
	b := []byte("é")
	if evs := d.Feed(b[:1]); len(evs) != 0 {
		t.Fatalf("Expected no events for partial rune, got %v", evs)
	}
	evs := d.Feed(b[1:])
	if len(evs) != 1 || evs[0].Rune != 'é' {
		t.Fatalf("Expected 'é', got %v", evs)
	}
}

func TestDecoderFlushLoneEscape(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte{0x1b})
	evs := d.Flush()
	if len(evs) != 1 || evs[0].Key != KeyEscape {
		t.Fatalf("Expected KeyEscape, got %v", evs)
	}
	if evs := d.Flush(); len(evs) != 0 {
		t.Errorf("Expected empty second flush, got %v", evs)
	}
}

func TestDecoderAltRune(t *testing.T) {
	evs := NewDecoder().Feed([]byte("\x1bw"))
	if len(evs) != 1 || evs[0].Rune != 'w' || evs[0].Modifiers != ModAlt {
		t.Fatalf("Expected Alt+w, got %v", evs)
	}
}

func TestKeyNames(t *testing.T) {
	for _, name := range []string{"up", "ctrl_c", "page_down", "escape"} {
		k, ok := KeyByName(name)
		if !ok {
			t.Errorf("Expected %q to resolve", name)
			continue
		}
		if k.Name() != name {
			t.Errorf("Expected round trip %q, got %q", name, k.Name())
		}
	}
	if k, ok := KeyByName("shift_tab"); !ok || k != KeyBacktab {
		t.Errorf("Expected shift_tab alias for KeyBacktab, got %v %v", k, ok)
	}
	if _, ok := KeyByName("f13"); ok {
		t.Error("Expected unknown name to fail")
	}
}
