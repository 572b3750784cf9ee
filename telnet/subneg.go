package telnet

import (
	"encoding/binary"
	"strconv"
)

func (e *Engine) resetSB() {
	e.sb = e.sb[:0]
	e.sbHaveOpt = false
	e.sbOverflow = false
}

// sbByte accumulates one unescaped subnegotiation byte, the first is the option code
func (e *Engine) sbByte(b byte) {
	if !e.sbHaveOpt {
		e.sbOpt = Option(b)
		e.sbHaveOpt = true
		return
	}
	if len(e.sb) >= maxSubnegotiation {
		e.sbOverflow = true
		return
	}
	e.sb = append(e.sb, b)
}

// dispatchSB hands a completed subnegotiation to its option handler
func (e *Engine) dispatchSB(res *Result) {
	defer e.resetSB()

	switch {
	case !e.sbHaveOpt:
		res.violation("empty subnegotiation")
		return
	case e.sbOverflow:
		res.violation("oversize subnegotiation for " + e.sbOpt.String())
		return
	}

	switch e.sbOpt {
	case OptNAWS:
		e.handleNAWS(res)
	case OptTTYPE:
		e.handleTTYPE(res)
	default:
		// Subnegotiation for an option we never agreed to
		res.violation("subnegotiation for " + e.sbOpt.String())
	}
}

// handleNAWS parses WIDTH[2] HEIGHT[2], big-endian
func (e *Engine) handleNAWS(res *Result) {
	if !e.Enabled(OptNAWS, SideHim) {
		res.violation("NAWS report without agreement")
		return
	}
	if len(e.sb) != 4 {
		res.violation("NAWS payload length " + strconv.Itoa(len(e.sb)))
		return
	}
	w := int(binary.BigEndian.Uint16(e.sb[0:2]))
	h := int(binary.BigEndian.Uint16(e.sb[2:4]))
	// Zero means unknown for that dimension
	if w == 0 || h == 0 {
		return
	}
	e.width, e.height = w, h
	res.Events = append(res.Events, Event{Kind: EventWindowSize, Option: OptNAWS, Width: w, Height: h})
}

// handleTTYPE parses IS <name>
func (e *Engine) handleTTYPE(res *Result) {
	if !e.Enabled(OptTTYPE, SideHim) {
		res.violation("TTYPE report without agreement")
		return
	}
	if len(e.sb) < 2 || e.sb[0] != subIS {
		res.violation("malformed TTYPE payload")
		return
	}
	e.termType = string(e.sb[1:])
	res.Events = append(res.Events, Event{Kind: EventTerminalType, Option: OptTTYPE, TermType: e.termType})
}
