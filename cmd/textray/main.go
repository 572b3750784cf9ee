package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/textray/config"
	"github.com/lixenwraith/textray/input"
	"github.com/lixenwraith/textray/logger"
	"github.com/lixenwraith/textray/network"
	"github.com/lixenwraith/textray/session"
	"github.com/lixenwraith/textray/status"
	"github.com/lixenwraith/textray/terminal"
	"github.com/lixenwraith/textray/worldmap"
)

var (
	configFlag = flag.String("config", "", "Path to TOML configuration (defaults built in when empty)")
	listenFlag = flag.String("listen", "", "Override the telnet listen address")
	debugFlag  = flag.Bool("debug", false, "Debug logging to stderr")
	checkFlag  = flag.Bool("check", false, "Validate the configuration and exit")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "textray: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(*configFlag)
	if err != nil {
		return err
	}
	if *listenFlag != "" {
		cfg.Server.Listen = *listenFlag
	}
	if *debugFlag {
		cfg.Log.Level = "debug"
		cfg.Log.Stderr = logger.StderrAlways
	}

	world, err := cfg.BuildMap()
	if err != nil {
		return err
	}
	keys, err := cfg.KeyTable()
	if err != nil {
		return err
	}
	if *checkFlag {
		fmt.Printf("configuration ok: %dx%d level\n", world.Width(), world.Height())
		return nil
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := status.NewRegistry()
	opts := sessionOptions(cfg, keys)
	opts.Metrics = metrics
	nc := transportConfig(cfg)
	nc.Metrics = metrics

	handler := newHandler(opts, world, log, stop)
	transport := network.NewTransport(nc, handler, log)
	if err := transport.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	log.Info("server started",
		zap.Int("map_width", world.Width()),
		zap.Int("map_height", world.Height()),
		zap.Int("max_sessions", cfg.Server.MaxSessions),
		zap.Bool("allow_shutdown", cfg.Server.AllowShutdown))

	<-ctx.Done()
	log.Info("shutting down")
	return transport.Stop()
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// transportConfig maps the file sections onto listener settings
func transportConfig(cfg config.Config) *network.Config {
	nc := network.DefaultConfig()
	nc.Address = cfg.Server.Listen
	nc.MaxSessions = cfg.Server.MaxSessions
	nc.WriteTimeout = cfg.Server.WriteTimeout.Duration
	nc.ReadBufferSize = cfg.Server.ReadBufferSize
	nc.SSH = network.SSHConfig{
		Enabled:     cfg.SSH.Enabled,
		Address:     cfg.SSH.Listen,
		HostKeyPath: cfg.SSH.HostKey,
		Password:    cfg.SSH.Password,
	}
	nc.WebSocket = network.WebSocketConfig{
		Enabled: cfg.WebSocket.Enabled,
		Address: cfg.WebSocket.Listen,
		Path:    cfg.WebSocket.Path,
		Origins: cfg.WebSocket.Origins,
	}
	return nc
}

// sessionOptions holds everything shared by all sessions; per-connection fields are filled by the handler
func sessionOptions(cfg config.Config, keys *input.KeyTable) session.Options {
	mode, forced, _ := terminal.ParseColorMode(cfg.Game.ColorMode)
	action, _ := session.ParseTimeoutAction(cfg.Telnet.TimeoutAction)

	opts := session.DefaultOptions()
	opts.Policy = cfg.Policy()
	opts.ColorMode = mode
	opts.ForceColor = forced
	opts.Modes = cfg.Modes()
	opts.Keys = keys
	opts.TickInterval = cfg.TickInterval()
	opts.NegotiationTimeout = cfg.Telnet.NegotiationTimeout.Duration
	opts.TimeoutAction = action
	opts.KeepAlive = cfg.Telnet.KeepAlive.Duration
	opts.WriteTimeout = cfg.Server.WriteTimeout.Duration
	opts.ReadBufferSize = cfg.Server.ReadBufferSize
	opts.FOV = cfg.Game.FOV
	opts.MaxRange = cfg.Game.MaxRange
	opts.MoveStep = cfg.Game.MoveStep
	opts.TurnStep = cfg.Game.TurnStep
	opts.ZoomStep = cfg.Game.ZoomStep
	opts.Heading = cfg.Map.Heading
	opts.AllowShutdown = cfg.Server.AllowShutdown
	return opts
}

// newHandler runs one session per connection; shutdown is called when a player stops the server
func newHandler(base session.Options, world *worldmap.Map, log *zap.Logger, shutdown func()) network.Handler {
	return network.HandlerFunc(func(ctx context.Context, conn *network.Peer, info network.ConnInfo) {
		opts := base
		opts.ID = info.ID
		opts.Telnet = info.Kind == network.KindTelnet
		if info.TermType != "" {
			opts.TermType = info.TermType
		}
		if info.Size.Width > 0 && info.Size.Height > 0 {
			opts.Size = info.Size
		}
		opts.Resize = info.Resize
		opts.OnShutdown = shutdown

		s := session.New(conn, world, opts, log)
		started := time.Now()
		err := s.Run(ctx)

		fields := []zap.Field{
			zap.String("session", info.ID),
			zap.String("term", s.TermType()),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err),
		}
		switch {
		case errors.Is(err, session.ErrShutdown):
			log.Info("shutdown requested by player", fields...)
		case session.IsClean(err):
			log.Debug("session ended", fields...)
		default:
			log.Warn("session ended with error", fields...)
		}
	})
}
