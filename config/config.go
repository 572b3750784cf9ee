// Package config loads the server configuration from TOML
package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/textray/input"
	"github.com/lixenwraith/textray/logger"
	"github.com/lixenwraith/textray/telnet"
	"github.com/lixenwraith/textray/terminal"
	"github.com/lixenwraith/textray/worldmap"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration read from strings such as "30s" or "250ms"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the root of the TOML document
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Telnet    TelnetConfig    `toml:"telnet"`
	SSH       SSHConfig       `toml:"ssh"`
	WebSocket WebSocketConfig `toml:"websocket"`
	Game      GameConfig      `toml:"game"`
	Map       MapConfig       `toml:"map"`
	Keys      KeysConfig      `toml:"keys"`
	Log       logger.Config   `toml:"log"`
}

// ServerConfig covers the telnet listener and limits shared by every transport
type ServerConfig struct {
	Listen         string   `toml:"listen"`
	MaxSessions    int      `toml:"max_sessions"`
	ReadBufferSize int      `toml:"read_buffer_size"`
	WriteTimeout   Duration `toml:"write_timeout"`
	AllowShutdown  bool     `toml:"allow_shutdown"`
}

// TelnetConfig holds negotiation timing and the option policy
type TelnetConfig struct {
	NegotiationTimeout Duration `toml:"negotiation_timeout"`
	TimeoutAction      string   `toml:"timeout_action"` // "proceed" or "close"
	KeepAlive          Duration `toml:"keepalive"`      // 0 disables NOP keepalive

	Echo  bool `toml:"echo"`  // Server echo, the client stops echoing locally
	SGA   bool `toml:"sga"`   // Suppress go-ahead, character-at-a-time input
	TType bool `toml:"ttype"` // Ask for the terminal type
	NAWS  bool `toml:"naws"`  // Ask for the window size
}

// SSHConfig enables the SSH listener
type SSHConfig struct {
	Enabled  bool   `toml:"enabled"`
	Listen   string `toml:"listen"`
	HostKey  string `toml:"host_key"`
	Password string `toml:"password"` // Empty accepts any password and none auth
}

// WebSocketConfig enables the HTTP/WebSocket listener
type WebSocketConfig struct {
	Enabled bool     `toml:"enabled"`
	Listen  string   `toml:"listen"`
	Path    string   `toml:"path"`
	Origins []string `toml:"origins"` // Empty allows any origin
}

// GameConfig tunes rendering and movement
type GameConfig struct {
	TickRate  int     `toml:"tick_rate"` // Frames per second
	FOV       float64 `toml:"fov"`       // Degrees
	MaxRange  float64 `toml:"max_range"` // Cells
	MoveStep  float64 `toml:"move_step"` // Cells per key press
	TurnStep  float64 `toml:"turn_step"` // Degrees per key press
	ZoomStep  float64 `toml:"zoom_step"` // Degrees per key press
	ColorMode string  `toml:"color_mode"`

	AltScreen  bool `toml:"alt_screen"`
	HideCursor bool `toml:"hide_cursor"`
	NoWrap     bool `toml:"no_wrap"`
}

// MapConfig selects the level: rows, a generated maze, or the built-in level
type MapConfig struct {
	Rows     []string        `toml:"rows"`
	Start    []int           `toml:"start"`   // [x, y], overrides '@'
	Heading  float64         `toml:"heading"` // Degrees
	Generate *GenerateConfig `toml:"generate"`
}

// GenerateConfig mirrors worldmap.MazeConfig
type GenerateConfig struct {
	Width     int     `toml:"width"`
	Height    int     `toml:"height"`
	Braiding  float64 `toml:"braiding"`
	Materials int     `toml:"materials"`
	Seed      int64   `toml:"seed"`
}

// KeysConfig overrides default bindings, an action of "none" unbinds a key
type KeysConfig struct {
	Runes   map[string]string `toml:"runes"`   // "w" = "forward"
	Special map[string]string `toml:"special"` // "up" = "forward"
}

// Default returns a complete configuration serving the built-in level over telnet
func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:         ":2323",
			MaxSessions:    64,
			ReadBufferSize: 4096,
			WriteTimeout:   Duration{5 * time.Second},
		},
		Telnet: TelnetConfig{
			NegotiationTimeout: Duration{2 * time.Second},
			TimeoutAction:      "proceed",
			KeepAlive:          Duration{30 * time.Second},
			Echo:               true,
			SGA:                true,
			TType:              true,
			NAWS:               true,
		},
		SSH: SSHConfig{
			Listen:  ":2222",
			HostKey: "textray_host_ed25519",
		},
		WebSocket: WebSocketConfig{
			Listen: ":8080",
			Path:   "/ws",
		},
		Game: GameConfig{
			TickRate:   20,
			FOV:        90,
			MaxRange:   16,
			MoveStep:   0.25,
			TurnStep:   15,
			ZoomStep:   5,
			ColorMode:  "auto",
			AltScreen:  true,
			HideCursor: true,
			NoWrap:     true,
		},
		Map: MapConfig{
			Heading: worldmap.DefaultHeading,
		},
		Log: logger.DefaultConfig(),
	}
}

// Load overlays the file at path onto Default and validates the result
// Unknown keys are rejected so typos do not silently fall back to defaults
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, fmt.Errorf("%w: unknown keys: %s", ErrInvalid, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks ranges and builds the map once to surface level errors early
func (c *Config) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"game.fov", c.Game.FOV},
		{"game.max_range", c.Game.MaxRange},
		{"game.move_step", c.Game.MoveStep},
		{"game.turn_step", c.Game.TurnStep},
		{"game.zoom_step", c.Game.ZoomStep},
		{"map.heading", c.Map.Heading},
	} {
		if !finite(f.v) {
			return fmt.Errorf("%w: %s must be finite, got %g", ErrInvalid, f.name, f.v)
		}
	}

	switch {
	case c.Game.TickRate <= 0:
		return fmt.Errorf("%w: game.tick_rate must be positive, got %d", ErrInvalid, c.Game.TickRate)
	case c.Game.FOV <= 0 || c.Game.FOV >= 180:
		return fmt.Errorf("%w: game.fov must be in (0, 180), got %g", ErrInvalid, c.Game.FOV)
	case c.Game.MaxRange <= 0:
		return fmt.Errorf("%w: game.max_range must be positive, got %g", ErrInvalid, c.Game.MaxRange)
	case c.Game.MoveStep <= 0 || c.Game.MoveStep >= 1:
		return fmt.Errorf("%w: game.move_step must be in (0, 1), got %g", ErrInvalid, c.Game.MoveStep)
	case c.Server.MaxSessions < 0:
		return fmt.Errorf("%w: server.max_sessions must not be negative", ErrInvalid)
	case c.Server.ReadBufferSize <= 0:
		return fmt.Errorf("%w: server.read_buffer_size must be positive", ErrInvalid)
	case c.Telnet.NegotiationTimeout.Duration <= 0:
		return fmt.Errorf("%w: telnet.negotiation_timeout must be positive", ErrInvalid)
	}
	switch c.Telnet.TimeoutAction {
	case "proceed", "close":
	default:
		return fmt.Errorf("%w: telnet.timeout_action must be proceed or close, got %q", ErrInvalid, c.Telnet.TimeoutAction)
	}
	if _, _, err := terminal.ParseColorMode(c.Game.ColorMode); err != nil {
		return fmt.Errorf("%w: game.color_mode: %v", ErrInvalid, err)
	}
	if c.SSH.Enabled && c.SSH.HostKey == "" {
		return fmt.Errorf("%w: ssh.host_key is required when ssh is enabled", ErrInvalid)
	}
	if c.WebSocket.Enabled && !strings.HasPrefix(c.WebSocket.Path, "/") {
		return fmt.Errorf("%w: websocket.path must start with '/', got %q", ErrInvalid, c.WebSocket.Path)
	}
	if _, err := c.KeyTable(); err != nil {
		return err
	}
	if _, err := c.BuildMap(); err != nil {
		return err
	}
	return nil
}

// KeyTable merges the [keys] overrides onto the default bindings
func (c *Config) KeyTable() (*input.KeyTable, error) {
	override, err := input.ParseKeyMap(c.Keys.Runes, c.Keys.Special)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return input.MergeKeyTable(input.DefaultKeyTable(), override), nil
}

// BuildMap constructs the level selected by the [map] section
// Explicit rows win over generation; with neither, the built-in level is used
func (c *Config) BuildMap() (*worldmap.Map, error) {
	start, err := c.startPoint()
	if err != nil {
		return nil, err
	}

	var m *worldmap.Map
	switch {
	case len(c.Map.Rows) > 0:
		m, err = worldmap.Parse(c.Map.Rows)
	case c.Map.Generate != nil:
		g := c.Map.Generate
		m, err = worldmap.Generate(worldmap.MazeConfig{
			Width:     g.Width,
			Height:    g.Height,
			Braiding:  g.Braiding,
			Materials: g.Materials,
			Start:     start,
			Seed:      g.Seed,
		})
		// Generation already placed the start on a carved cell
		start = nil
	default:
		m = worldmap.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: map: %v", ErrInvalid, err)
	}

	if start != nil {
		if !m.InBounds(start.X, start.Y) {
			return nil, fmt.Errorf("%w: map.start (%d,%d) outside %dx%d level", ErrInvalid, start.X, start.Y, m.Width(), m.Height())
		}
		if m.IsWall(start.X, start.Y) {
			return nil, fmt.Errorf("%w: map.start (%d,%d) is inside a wall", ErrInvalid, start.X, start.Y)
		}
		m, err = m.WithStart(*start)
		if err != nil {
			return nil, fmt.Errorf("%w: map: %v", ErrInvalid, err)
		}
	}
	return m, nil
}

func (c *Config) startPoint() (*worldmap.Point, error) {
	switch len(c.Map.Start) {
	case 0:
		return nil, nil
	case 2:
		return &worldmap.Point{X: c.Map.Start[0], Y: c.Map.Start[1]}, nil
	}
	return nil, fmt.Errorf("%w: map.start must be [x, y], got %d values", ErrInvalid, len(c.Map.Start))
}

// Policy converts the [telnet] switches into an engine option policy
// Refused options stay absent so the engine answers DONT/WONT
func (c *Config) Policy() telnet.Policy {
	p := telnet.Policy{}
	if c.Telnet.Echo {
		p[telnet.OptEcho] = telnet.OptionPolicy{AllowUs: true, RequestUs: true}
	}
	if c.Telnet.SGA {
		p[telnet.OptSGA] = telnet.OptionPolicy{AllowUs: true, AllowHim: true, RequestUs: true}
	}
	if c.Telnet.TType {
		p[telnet.OptTTYPE] = telnet.OptionPolicy{AllowHim: true, RequestHim: true}
	}
	if c.Telnet.NAWS {
		p[telnet.OptNAWS] = telnet.OptionPolicy{AllowHim: true, RequestHim: true}
	}
	return p
}

// Modes returns the terminal modes toggled on session entry
func (c *Config) Modes() terminal.Modes {
	return terminal.Modes{
		AltScreen:  c.Game.AltScreen,
		HideCursor: c.Game.HideCursor,
		NoWrap:     c.Game.NoWrap,
	}
}

// TickInterval converts the tick rate to a ticker period
func (c *Config) TickInterval() time.Duration {
	if c.Game.TickRate <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(c.Game.TickRate)
}
