// Package telnet implements the server side of Telnet option negotiation.
//
// Engine is a pure byte-level state machine: Receive splits an inbound chunk
// into application input and protocol replies, and never performs I/O.
// Option negotiation follows the RFC 1143 Q method without queue bits;
// a second request for an option is refused while one is outstanding.
//
// Supported options: ECHO, SUPPRESS-GO-AHEAD, TERMINAL-TYPE, NAWS.
// Everything else is refused.
package telnet
