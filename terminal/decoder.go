package terminal

// EventType distinguishes input event categories
type EventType uint8

const (
	EventKey EventType = iota
)

// Event represents a decoded client input event
type Event struct {
	Type      EventType
	Key       Key
	Rune      rune
	Modifiers Modifier
}

// maxPending bounds bytes held for an unterminated sequence
const maxPending = 64

// Decoder turns a client byte stream into key events
// Not safe for concurrent use; partial sequences are held across Feed calls
type Decoder struct {
	// Persistent buffer for stream assembly, partial UTF-8 and escapes survive chunk boundaries
	buf []byte
	// Last byte consumed was CR, a following LF or NUL belongs to the same Enter
	afterCR bool
}

// NewDecoder creates an empty decoder
func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, 0, 256)}
}

// Pending reports whether bytes are buffered awaiting completion
func (d *Decoder) Pending() bool {
	return len(d.buf) > 0
}

// Feed appends data and returns every event that can be decoded so far
func (d *Decoder) Feed(data []byte) []Event {
	if len(data) == 0 {
		return nil
	}
	d.buf = append(d.buf, data...)

	var events []Event
	consumed := d.parseInput(d.buf, &events)

	// Compact buffer
	if consumed >= len(d.buf) {
		d.buf = d.buf[:0]
	} else if consumed > 0 {
		copy(d.buf, d.buf[consumed:])
		d.buf = d.buf[:len(d.buf)-consumed]
	}

	// A runaway sequence never completes, drop it rather than grow without bound
	if len(d.buf) > maxPending {
		d.buf = d.buf[:0]
	}
	return events
}

// Flush resolves buffered bytes after an input lull
// A lone ESC becomes KeyEscape, anything else incomplete is discarded
func (d *Decoder) Flush() []Event {
	if len(d.buf) == 0 {
		return nil
	}
	var events []Event
	if len(d.buf) == 1 && d.buf[0] == 0x1b {
		events = append(events, Event{Type: EventKey, Key: KeyEscape})
	}
	d.buf = d.buf[:0]
	return events
}

// parseInput parses raw bytes into events and returns bytes consumed (stop on incomplete sequence)
func (d *Decoder) parseInput(data []byte, out *[]Event) int {
	i := 0
	n := len(data)

	for i < n {
		b := data[i]

		if d.afterCR {
			d.afterCR = false
			if b == '\n' || b == 0x00 {
				i++
				continue
			}
		}

		// Fast path: printable ASCII
		if b >= 0x20 && b < 0x7f {
			*out = append(*out, Event{Type: EventKey, Key: KeyRune, Rune: rune(b)})
			i++
			continue
		}

		// Escape sequence
		if b == 0x1b {
			// Need at least 2 bytes to determine sequence type
			if i+1 >= n {
				return i
			}

			consumed, ev := parseEscape(data[i:])
			if consumed == 0 {
				return i
			}

			// Only emit if not a swallowed unknown sequence
			if ev.Key != KeyNone {
				*out = append(*out, ev)
			}
			i += consumed
			continue
		}

		if b == '\r' {
			d.afterCR = true
			*out = append(*out, Event{Type: EventKey, Key: KeyEnter})
			i++
			continue
		}

		// Control characters
		if b < 0x20 {
			if ev := parseControl(b); ev.Key != KeyNone {
				*out = append(*out, ev)
			}
			i++
			continue
		}

		// DEL
		if b == 0x7f {
			*out = append(*out, Event{Type: EventKey, Key: KeyBackspace})
			i++
			continue
		}

		// UTF-8 multibyte
		seqLen := utf8SeqLen(b)
		if seqLen == 0 {
			// Invalid start byte, skip
			i++
			continue
		}
		if i+seqLen > n {
			// Incomplete UTF-8, wait for more data
			return i
		}
		rn, size := decodeRune(data[i:])
		*out = append(*out, Event{Type: EventKey, Key: KeyRune, Rune: rn})
		i += size
	}
	return i
}

// utf8SeqLen returns expected UTF-8 sequence length from start byte, 0 if invalid
func utf8SeqLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b&0xe0 == 0xc0:
		return 2
	case b&0xf0 == 0xe0:
		return 3
	case b&0xf8 == 0xf0:
		return 4
	}
	return 0
}

// decodeRune decodes one UTF-8 sequence, invalid continuation yields U+FFFD with size 1
func decodeRune(data []byte) (rune, int) {
	seqLen := utf8SeqLen(data[0])
	if seqLen == 0 || seqLen > len(data) {
		return 0xfffd, 1
	}
	var r rune
	switch seqLen {
	case 1:
		return rune(data[0]), 1
	case 2:
		r = rune(data[0] & 0x1f)
	case 3:
		r = rune(data[0] & 0x0f)
	case 4:
		r = rune(data[0] & 0x07)
	}
	for k := 1; k < seqLen; k++ {
		if data[k]&0xc0 != 0x80 {
			return 0xfffd, 1
		}
		r = r<<6 | rune(data[k]&0x3f)
	}
	return r, seqLen
}

// parseEscape attempts to parse an escape sequence, returns 0 on incomplete
func parseEscape(data []byte) (int, Event) {
	if len(data) < 2 {
		return 0, Event{}
	}

	// ESC ESC -> Alt+Escape
	if data[1] == 0x1b {
		return 2, Event{Type: EventKey, Key: KeyEscape, Modifiers: ModAlt}
	}

	if data[1] == '[' {
		return parseCSI(data)
	}
	if data[1] == 'O' {
		return parseSS3(data)
	}

	// Alt+Control character (ESC + 0x00-0x1F)
	if data[1] < 0x20 {
		ev := parseControl(data[1])
		ev.Modifiers |= ModAlt
		return 2, ev
	}

	// Alt+printable
	if data[1] < 0x7f {
		return 2, Event{Type: EventKey, Key: KeyRune, Rune: rune(data[1]), Modifiers: ModAlt}
	}

	// ESC followed by non-ASCII: plain escape, the next byte is decoded on its own
	return 1, Event{Type: EventKey, Key: KeyEscape}
}

// parseCSI parses CSI sequence without allocation
func parseCSI(data []byte) (int, Event) {
	if len(data) < 3 {
		return 0, Event{}
	}

	end := 2
	maxScan := min(len(data), 16)

	for end < maxScan {
		b := data[end]
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			end++
			if key, mod, ok := lookupCSI(data[2:end]); ok {
				return end, Event{Type: EventKey, Key: key, Modifiers: mod}
			}
			// Unknown but valid CSI syntax - consume and return KeyNone
			return end, Event{Type: EventKey, Key: KeyNone}
		}
		if b < 0x20 || b > 0x7e {
			// Malformed, drop the introducer only
			return 2, Event{Type: EventKey, Key: KeyNone}
		}
		end++
	}

	if len(data) >= 16 {
		// Overlong parameter string, discard what was scanned
		return end, Event{Type: EventKey, Key: KeyNone}
	}
	return 0, Event{} // Incomplete
}

// parseSS3 parses SS3 sequence, returns length even for unknown sequences
func parseSS3(data []byte) (int, Event) {
	if len(data) < 3 {
		return 0, Event{}
	}
	if key, mod, ok := lookupSS3(data[2:3]); ok {
		return 3, Event{Type: EventKey, Key: key, Modifiers: mod}
	}
	// Unknown SS3 - consume to prevent garbage
	return 3, Event{Type: EventKey, Key: KeyNone}
}

// parseControl maps control characters to keys
func parseControl(b byte) Event {
	switch b {
	case 0x00:
		return Event{Type: EventKey, Key: KeyNone}
	case 0x03:
		return Event{Type: EventKey, Key: KeyCtrlC}
	case 0x04:
		return Event{Type: EventKey, Key: KeyCtrlD}
	case 0x08: // Ctrl+H or Backspace
		return Event{Type: EventKey, Key: KeyBackspace}
	case 0x09:
		return Event{Type: EventKey, Key: KeyTab}
	case 0x0a, 0x0d:
		return Event{Type: EventKey, Key: KeyEnter}
	case 0x0c:
		return Event{Type: EventKey, Key: KeyCtrlL}
	case 0x1a:
		return Event{Type: EventKey, Key: KeyCtrlZ}
	}
	return Event{Type: EventKey, Key: KeyCtrlOther, Rune: rune(b), Modifiers: ModCtrl}
}
