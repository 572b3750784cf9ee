package session

import (
	"context"
	"errors"
	"io"
	"net"
)

var (
	// ErrQuit is returned when the user leaves with a quit key
	ErrQuit = errors.New("session quit")
	// ErrShutdown is returned when the user requested a server shutdown
	ErrShutdown = errors.New("server shutdown requested")
	// ErrNegotiationTimeout is returned when telnet negotiation did not settle and the timeout action is close
	ErrNegotiationTimeout = errors.New("telnet negotiation timed out")
	// ErrBadTransition reports an illegal lifecycle transition
	ErrBadTransition = errors.New("illegal session state transition")
)

// IsClean reports whether a Run result is an ordinary disconnect or a server stop
func IsClean(err error) bool {
	return err == nil ||
		errors.Is(err, ErrQuit) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed)
}
