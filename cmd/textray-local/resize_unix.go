//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/lixenwraith/textray/terminal"
)

// watchResize reports the terminal size on every SIGWINCH until ctx ends
func watchResize(ctx context.Context, fd int) <-chan terminal.Size {
	out := make(chan terminal.Size, 1)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGWINCH)

	go func() {
		defer signal.Stop(sig)
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				w, h, err := term.GetSize(fd)
				if err != nil {
					continue
				}
				select {
				case out <- terminal.Size{Width: w, Height: h}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
