package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kkyr/fig"
)

const (
	DefaultDomain = "p2p-share.fly.dev"
	DefaultSTUN   = "stun:stun.l.google.com:19302"

	// EnvPrefix is prepended to config field names when they are read
	// from the environment (P2PSHARE_DOMAIN, P2PSHARE_STUN_SERVER, ...).
	EnvPrefix = "P2PSHARE"

	configFile = "p2pshare.yaml"
)

// Config holds the settings shared by the relay server and the peer
// commands. Values are resolved from an optional YAML config file, then
// the environment, then CLI flags (highest priority).
type Config struct {
	// Domain is the public host of the relay, used to build the
	// WebSocket URL and the shareable room link.
	Domain string `fig:"domain"`

	// ListenAddr is the relay server bind address.
	ListenAddr string `fig:"listen_addr" default:":8080"`

	STUNServer string `fig:"stun_server"`
	TURNServer string `fig:"turn_server"`
	TURNUser   string `fig:"turn_user"`
	TURNPass   string `fig:"turn_pass"`

	// ForceRelay restricts ICE to TURN candidates.
	ForceRelay bool `fig:"force_relay"`

	// Transfer policy. ChunkSize is the binary frame size;
	// HighWaterMark is the outbound buffered-byte threshold above
	// which the sender pauses.
	ChunkSize     int `fig:"chunk_size" default:"65536"`
	HighWaterMark int `fig:"high_water_mark" default:"8388608"`

	Debug bool `fig:"debug"`
}

// Options carries CLI flag overrides into Load.
type Options struct {
	ConfigPath string
	Domain     string
	ListenAddr string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
	Debug      bool
}

// Load resolves the configuration: YAML file (when present), then
// environment variables with the P2PSHARE_ prefix, then flag overrides.
func Load(opts Options) (*Config, error) {
	var cfg Config

	dirs := []string{"."}
	file := configFile
	if opts.ConfigPath != "" {
		file = filepath.Base(opts.ConfigPath)
		dirs = []string{filepath.Dir(opts.ConfigPath)}
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "p2pshare"))
	}

	err := fig.Load(&cfg, fig.File(file), fig.Dirs(dirs...), fig.UseEnv(EnvPrefix))
	if err != nil {
		// A missing config file is fine unless one was asked for
		// explicitly; env and defaults still apply.
		if !errors.Is(err, fig.ErrFileNotFound) || opts.ConfigPath != "" {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := fig.Load(&cfg, fig.IgnoreFile(), fig.UseEnv(EnvPrefix)); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	if opts.Domain != "" {
		cfg.Domain = opts.Domain
	}
	if cfg.Domain == "" {
		cfg.Domain = DefaultDomain
	}
	if opts.ListenAddr != "" {
		cfg.ListenAddr = opts.ListenAddr
	}
	if opts.STUNServer != "" {
		cfg.STUNServer = opts.STUNServer
	}
	if cfg.STUNServer == "" {
		cfg.STUNServer = DefaultSTUN
	}
	if opts.TURNServer != "" {
		cfg.TURNServer = opts.TURNServer
	}
	if opts.TURNUser != "" {
		cfg.TURNUser = opts.TURNUser
	}
	if opts.TURNPass != "" {
		cfg.TURNPass = opts.TURNPass
	}
	cfg.ForceRelay = cfg.ForceRelay || opts.ForceRelay
	cfg.Debug = cfg.Debug || opts.Debug

	if cfg.ForceRelay && cfg.TURNServer == "" {
		return nil, errors.New("cannot force relay mode without a TURN server configured")
	}

	return &cfg, nil
}

// WebSocketURL returns the relay signaling endpoint.
func (c *Config) WebSocketURL() string {
	return fmt.Sprintf("wss://%s/ws", c.Domain)
}

// RoomLink returns the shareable URL for a room, with the room id as a
// query parameter so the web client can pick it up out of band.
func (c *Config) RoomLink(roomID string) string {
	return fmt.Sprintf("https://%s/?room=%s", c.Domain, roomID)
}

// STUNServers returns the STUN server URLs.
func (c *Config) STUNServers() []string {
	return []string{c.STUNServer}
}

// TURNServers returns TURN server URLs when a TURN host is configured.
func (c *Config) TURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// TURNCredentials returns the TURN username and password.
func (c *Config) TURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
