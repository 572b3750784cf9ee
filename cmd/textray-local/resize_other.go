//go:build !unix

package main

import (
	"context"

	"github.com/lixenwraith/textray/terminal"
)

// watchResize has no window-change signal to watch on this platform
func watchResize(context.Context, int) <-chan terminal.Size {
	return nil
}
