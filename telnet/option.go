package telnet

import "sort"

// QState is the RFC 1143 negotiation state of one side of one option
type QState uint8

const (
	QNone    QState = iota // Never negotiated, behaves as QNo
	QWantYes               // We sent WILL/DO, awaiting reply
	QWantNo                // We sent WONT/DONT, awaiting reply
	QYes
	QNo
)

func (q QState) String() string {
	switch q {
	case QWantYes:
		return "WANT_YES"
	case QWantNo:
		return "WANT_NO"
	case QYes:
		return "YES"
	case QNo:
		return "NO"
	}
	return "NONE"
}

// Pending reports whether a request is outstanding
func (q QState) Pending() bool {
	return q == QWantYes || q == QWantNo
}

// Side selects which party performs an option
type Side uint8

const (
	SideUs  Side = iota // We perform it: WILL/WONT sent, DO/DONT received
	SideHim             // Peer performs it: DO/DONT sent, WILL/WONT received
)

func (s Side) String() string {
	if s == SideHim {
		return "him"
	}
	return "us"
}

// optionState holds both sides of one option
type optionState struct {
	us  QState
	him QState
}

func (o *optionState) side(s Side) *QState {
	if s == SideHim {
		return &o.him
	}
	return &o.us
}

// OptionPolicy decides what the engine accepts and initiates for one option
type OptionPolicy struct {
	AllowUs    bool // Accept DO
	AllowHim   bool // Accept WILL
	RequestUs  bool // Send WILL at start
	RequestHim bool // Send DO at start
}

// Policy maps option codes to their policy, absent options are refused
type Policy map[Option]OptionPolicy

// DefaultPolicy is server echo with character-at-a-time input, plus terminal type and window size from the peer
func DefaultPolicy() Policy {
	return Policy{
		OptEcho:  {AllowUs: true, RequestUs: true},
		OptSGA:   {AllowUs: true, AllowHim: true, RequestUs: true},
		OptTTYPE: {AllowHim: true, RequestHim: true},
		OptNAWS:  {AllowHim: true, RequestHim: true},
	}
}

func (p Policy) allows(opt Option, s Side) bool {
	op, ok := p[opt]
	if !ok {
		return false
	}
	if s == SideHim {
		return op.AllowHim
	}
	return op.AllowUs
}

// sortedOptions returns policy options in ascending code order
func (p Policy) sortedOptions() []Option {
	opts := make([]Option, 0, len(p))
	for o := range p {
		opts = append(opts, o)
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i] < opts[j] })
	return opts
}

// Request names one side of one option
type Request struct {
	Option Option
	Side   Side
}
