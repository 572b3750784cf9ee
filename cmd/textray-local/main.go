// Command textray-local plays the level on the controlling terminal without a server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/lixenwraith/textray/config"
	"github.com/lixenwraith/textray/logger"
	"github.com/lixenwraith/textray/session"
	"github.com/lixenwraith/textray/terminal"
)

var (
	configFlag = flag.String("config", "", "Path to TOML configuration (defaults built in when empty)")
	colorFlag  = flag.String("color", "", "Color mode: auto, truecolor, 256, 16 (overrides the configuration)")
)

// stdio joins the process streams into the connection a session drives
type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error { return nil }

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "textray-local: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if *configFlag != "" {
		var err error
		if cfg, err = config.Load(*configFlag); err != nil {
			return err
		}
	}
	if *colorFlag != "" {
		cfg.Game.ColorMode = *colorFlag
	}
	// Log lines on stderr would corrupt the frame
	cfg.Log.Stderr = logger.StderrNever

	world, err := cfg.BuildMap()
	if err != nil {
		return err
	}
	keys, err := cfg.KeyTable()
	if err != nil {
		return err
	}
	mode, forced, err := terminal.ParseColorMode(cfg.Game.ColorMode)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	inFd, outFd := int(os.Stdin.Fd()), int(os.Stdout.Fd())
	if !term.IsTerminal(inFd) || !term.IsTerminal(outFd) {
		return errors.New("stdin and stdout must be a terminal")
	}
	width, height, err := term.GetSize(outFd)
	if err != nil {
		return fmt.Errorf("terminal size: %w", err)
	}

	saved, err := term.MakeRaw(inFd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer term.Restore(inFd, saved)
	defer func() {
		if r := recover(); r != nil {
			term.Restore(inFd, saved)
			os.Stdout.Write(terminal.DefaultModes().Exit())
			fmt.Fprintf(os.Stderr, "\r\ntextray-local crashed: %v\r\n%s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	termType := os.Getenv("TERM")
	if !forced && colorTermTrue(os.Getenv("COLORTERM")) {
		mode, forced = terminal.ColorModeTrueColor, true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := session.DefaultOptions()
	opts.Telnet = false
	opts.Size = terminal.Size{Width: width, Height: height}
	opts.TermType = termType
	opts.ColorMode = mode
	opts.ForceColor = forced
	opts.Modes = cfg.Modes()
	opts.Keys = keys
	opts.Resize = watchResize(ctx, outFd)
	opts.TickInterval = cfg.TickInterval()
	opts.WriteTimeout = 0
	opts.FOV = cfg.Game.FOV
	opts.MaxRange = cfg.Game.MaxRange
	opts.MoveStep = cfg.Game.MoveStep
	opts.TurnStep = cfg.Game.TurnStep
	opts.ZoomStep = cfg.Game.ZoomStep
	opts.Heading = cfg.Map.Heading

	s := session.New(stdio{Reader: os.Stdin, Writer: os.Stdout}, world, opts, log)
	err = s.Run(ctx)
	if session.IsClean(err) {
		return nil
	}
	return err
}

// colorTermTrue reports the COLORTERM convention for 24-bit support
func colorTermTrue(v string) bool {
	v = strings.ToLower(v)
	return v == "truecolor" || v == "24bit"
}
