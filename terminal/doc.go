// Package terminal models a remote character terminal and renders to it with ANSI sequences.
//
// Features:
//   - Row-major cell grids (front/back) with value-comparable cells
//   - Diff rendering: cursor re-homing, SGR coalescing, zero output on idle frames
//   - True color, 256-color and 16-color output
//   - Terminal capability lookup through terminfo (TERMINAL-TYPE driven)
//   - Raw input decoding into key events, resumable across reads
//
// The package never touches a local tty: all output is returned as bytes
// for a transport to deliver, and all input is fed in by the caller.
package terminal
