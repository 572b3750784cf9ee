package telnet

import (
	"bytes"
	"strconv"
)

// Telnet commands (RFC 854)
const (
	SE   byte = 240 // End of subnegotiation parameters
	NOP  byte = 241 // No operation
	DM   byte = 242 // Data mark
	BRK  byte = 243 // Break
	IP   byte = 244 // Interrupt process
	AO   byte = 245 // Abort output
	AYT  byte = 246 // Are you there
	EC   byte = 247 // Erase character
	EL   byte = 248 // Erase line
	GA   byte = 249 // Go ahead
	SB   byte = 250 // Subnegotiation
	WILL byte = 251
	WONT byte = 252
	DO   byte = 253
	DONT byte = 254
	IAC  byte = 255 // Interpret as command
)

// Option is a Telnet option code
type Option byte

const (
	OptEcho  Option = 1  // RFC 857
	OptSGA   Option = 3  // RFC 858
	OptTTYPE Option = 24 // RFC 1091
	OptNAWS  Option = 31 // RFC 1073
)

// Subnegotiation commands (TERMINAL-TYPE)
const (
	subIS   byte = 0
	subSEND byte = 1
)

// maxSubnegotiation bounds an SB payload; larger payloads are discarded at SE
const maxSubnegotiation = 512

func (o Option) String() string {
	switch o {
	case OptEcho:
		return "ECHO"
	case OptSGA:
		return "SGA"
	case OptTTYPE:
		return "TTYPE"
	case OptNAWS:
		return "NAWS"
	}
	return "OPT" + strconv.Itoa(int(o))
}

// CommandName returns the mnemonic for a command byte
func CommandName(b byte) string {
	switch b {
	case SE:
		return "SE"
	case NOP:
		return "NOP"
	case DM:
		return "DM"
	case BRK:
		return "BRK"
	case IP:
		return "IP"
	case AO:
		return "AO"
	case AYT:
		return "AYT"
	case EC:
		return "EC"
	case EL:
		return "EL"
	case GA:
		return "GA"
	case SB:
		return "SB"
	case WILL:
		return "WILL"
	case WONT:
		return "WONT"
	case DO:
		return "DO"
	case DONT:
		return "DONT"
	case IAC:
		return "IAC"
	}
	return "CMD" + strconv.Itoa(int(b))
}

// Escape appends p to dst with every 0xFF doubled
func Escape(dst, p []byte) []byte {
	for {
		i := bytes.IndexByte(p, IAC)
		if i < 0 {
			return append(dst, p...)
		}
		dst = append(dst, p[:i+1]...)
		dst = append(dst, IAC)
		p = p[i+1:]
	}
}

// NOPCommand returns the keepalive command
func NOPCommand() []byte {
	return []byte{IAC, NOP}
}
