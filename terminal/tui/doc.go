// Package tui provides immediate-mode drawing primitives over a terminal.Grid.
//
// Core abstraction is Region, a rectangular window into a grid.
// All drawing operations are relative to region bounds with automatic clipping.
//
// Usage pattern:
//
//	root := tui.NewRegion(screen.Back())
//	view := root.Sub(0, 0, root.W, root.H-1)
//	renderer.Draw(view, columns)
//	root.StatusBar(root.H-1, left, right, tui.DefaultBarOpts())
package tui
