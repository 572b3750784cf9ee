package telnet

// byteState is the position of the parser within the command grammar
type byteState uint8

const (
	stateData    byteState = iota // Pass bytes through as input
	stateIAC                      // Just consumed IAC
	stateCommand                  // Expect option byte after WILL/WONT/DO/DONT
	stateSB                       // Accumulating subnegotiation
	stateSBIAC                    // IAC seen inside subnegotiation
)

// EventKind distinguishes negotiation events
type EventKind uint8

const (
	EventWindowSize   EventKind = iota // NAWS report, Width/Height set
	EventTerminalType                  // TTYPE IS, TermType set
	EventOption                        // Option side settled, Option/Side/Enabled set
	EventViolation                     // Malformed input discarded, Reason set
)

// Event reports a negotiation outcome to the session
type Event struct {
	Kind     EventKind
	Option   Option
	Side     Side
	Enabled  bool
	Width    int
	Height   int
	TermType string
	Reason   string
}

// Result is the outcome of one Receive call
// Input and Reply never share bytes; Reply is in trigger order
type Result struct {
	Input  []byte
	Reply  []byte
	Events []Event
}

// Engine is the per-connection Telnet state machine, not safe for concurrent use
type Engine struct {
	policy  Policy
	options [256]optionState

	state byteState
	cmd   byte

	sb         []byte
	sbOpt      Option
	sbHaveOpt  bool
	sbOverflow bool

	width    int
	height   int
	termType string
}

// NewEngine creates an engine; a nil policy refuses every option
func NewEngine(policy Policy) *Engine {
	if policy == nil {
		policy = Policy{}
	}
	return &Engine{
		policy: policy,
		sb:     make([]byte, 0, 64),
	}
}

// Start returns the initial requests from the policy: WILL for our side, then DO for the peer
func (e *Engine) Start() []byte {
	var out []byte
	opts := e.policy.sortedOptions()
	for _, opt := range opts {
		if e.policy[opt].RequestUs {
			out = append(out, e.RequestUs(opt, true)...)
		}
	}
	for _, opt := range opts {
		if e.policy[opt].RequestHim {
			out = append(out, e.RequestHim(opt, true)...)
		}
	}
	return out
}

// RequestUs asks to enable or disable an option we perform
// Returns nil when already in the wanted state, a request is outstanding, or policy forbids enabling
func (e *Engine) RequestUs(opt Option, enable bool) []byte {
	return e.request(opt, SideUs, enable)
}

// RequestHim asks the peer to enable or disable an option it performs
func (e *Engine) RequestHim(opt Option, enable bool) []byte {
	return e.request(opt, SideHim, enable)
}

func (e *Engine) request(opt Option, s Side, enable bool) []byte {
	q := e.options[opt].side(s)
	var cmd byte
	switch {
	case enable && (*q == QNone || *q == QNo):
		if !e.policy.allows(opt, s) {
			return nil
		}
		*q = QWantYes
		cmd = WILL
		if s == SideHim {
			cmd = DO
		}
	case !enable && *q == QYes:
		*q = QWantNo
		cmd = WONT
		if s == SideHim {
			cmd = DONT
		}
	default:
		return nil
	}
	return []byte{IAC, cmd, byte(opt)}
}

// State returns the current Q state of one side of an option
func (e *Engine) State(opt Option, s Side) QState {
	return *e.options[opt].side(s)
}

// Enabled reports whether one side of an option is settled YES
func (e *Engine) Enabled(opt Option, s Side) bool {
	return e.State(opt, s) == QYes
}

// Settled reports whether no listed request is outstanding
func (e *Engine) Settled(reqs ...Request) bool {
	for _, r := range reqs {
		if e.State(r.Option, r.Side).Pending() {
			return false
		}
	}
	return true
}

// InSubnegotiation reports an unterminated SB, e.g. at stream end
func (e *Engine) InSubnegotiation() bool {
	return e.state == stateSB || e.state == stateSBIAC
}

// WindowSize returns the last NAWS report, zero until one arrives
func (e *Engine) WindowSize() (width, height int) {
	return e.width, e.height
}

// TerminalType returns the last TTYPE IS report
func (e *Engine) TerminalType() string {
	return e.termType
}

// Receive consumes an inbound chunk
// Partial commands are carried over to the next call
func (e *Engine) Receive(data []byte) Result {
	var res Result
	for _, b := range data {
		switch e.state {
		case stateData:
			if b == IAC {
				e.state = stateIAC
			} else {
				res.Input = append(res.Input, b)
			}

		case stateIAC:
			e.command(b, &res)

		case stateCommand:
			e.negotiate(e.cmd, Option(b), &res)
			e.state = stateData

		case stateSB:
			if b == IAC {
				e.state = stateSBIAC
				continue
			}
			e.sbByte(b)

		case stateSBIAC:
			switch b {
			case IAC:
				e.sbByte(IAC)
				e.state = stateSB
			case SE:
				e.state = stateData
				e.dispatchSB(&res)
			default:
				// Peer abandoned the subnegotiation; the byte starts a new command
				res.violation("IAC " + CommandName(b) + " inside subnegotiation")
				e.resetSB()
				e.command(b, &res)
			}
		}
	}
	return res
}

// command handles the byte following IAC outside a subnegotiation
func (e *Engine) command(b byte, res *Result) {
	switch b {
	case IAC:
		res.Input = append(res.Input, IAC)
		e.state = stateData
	case WILL, WONT, DO, DONT:
		e.cmd = b
		e.state = stateCommand
	case SB:
		e.resetSB()
		e.state = stateSB
	case NOP, GA, DM, BRK, IP, AO, AYT, EC, EL:
		e.state = stateData
	case SE:
		res.violation("stray SE")
		e.state = stateData
	default:
		res.violation("unknown command " + CommandName(b))
		e.state = stateData
	}
}

// negotiate applies a received WILL/WONT/DO/DONT to the Q state table
func (e *Engine) negotiate(cmd byte, opt Option, res *Result) {
	s := SideHim
	positive := cmd == WILL
	if cmd == DO || cmd == DONT {
		s = SideUs
		positive = cmd == DO
	}
	q := e.options[opt].side(s)

	// Replies for each side: accept/refuse of peer's WILL is DO/DONT, of peer's DO is WILL/WONT
	yes, no := DO, DONT
	if s == SideUs {
		yes, no = WILL, WONT
	}

	if positive {
		switch *q {
		case QNone, QNo:
			if e.policy.allows(opt, s) {
				*q = QYes
				res.reply(yes, opt)
				e.settled(opt, s, true, res)
			} else {
				*q = QNo
				res.reply(no, opt)
			}
		case QYes:
			// Unsolicited agreement on a settled option
		case QWantNo:
			// Peer answered our disable with an enable
			*q = QNo
			res.violation(CommandName(cmd) + " " + opt.String() + " answered disable request")
			e.settled(opt, s, false, res)
		case QWantYes:
			*q = QYes
			e.settled(opt, s, true, res)
		}
		return
	}

	switch *q {
	case QYes:
		*q = QNo
		res.reply(no, opt)
		e.settled(opt, s, false, res)
	case QWantYes, QWantNo:
		*q = QNo
		e.settled(opt, s, false, res)
	case QNone:
		*q = QNo
	case QNo:
	}
}

// settled emits the option event and any follow-up the option needs
func (e *Engine) settled(opt Option, s Side, enabled bool, res *Result) {
	res.Events = append(res.Events, Event{Kind: EventOption, Option: opt, Side: s, Enabled: enabled})
	if enabled && s == SideHim && opt == OptTTYPE {
		res.Reply = append(res.Reply, IAC, SB, byte(OptTTYPE), subSEND, IAC, SE)
	}
}

func (r *Result) reply(cmd byte, opt Option) {
	r.Reply = append(r.Reply, IAC, cmd, byte(opt))
}

func (r *Result) violation(reason string) {
	r.Events = append(r.Events, Event{Kind: EventViolation, Reason: reason})
}
