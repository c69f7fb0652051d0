package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, DefaultDomain, cfg.Domain)
	assert.Equal(t, DefaultSTUN, cfg.STUNServer)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 64*1024, cfg.ChunkSize)
	assert.Equal(t, 8*1024*1024, cfg.HighWaterMark)
	assert.False(t, cfg.ForceRelay)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p2pshare.yaml")
	yaml := "domain: relay.example.com\nturn_server: turn:turn.example.com\nchunk_size: 16384\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(Options{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, "relay.example.com", cfg.Domain)
	assert.Equal(t, "turn:turn.example.com", cfg.TURNServer)
	assert.Equal(t, 16384, cfg.ChunkSize)
	// Untouched values keep their defaults.
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoad_ExplicitMissingFileIsAnError(t *testing.T) {
	_, err := Load(Options{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestLoad_FlagsBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p2pshare.yaml")
	require.NoError(t, os.WriteFile(path, []byte("domain: from-file.example.com\n"), 0o644))

	cfg, err := Load(Options{ConfigPath: path, Domain: "from-flag.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag.example.com", cfg.Domain)
}

func TestLoad_ForceRelayNeedsTURN(t *testing.T) {
	_, err := Load(Options{ForceRelay: true})
	assert.Error(t, err)

	cfg, err := Load(Options{ForceRelay: true, TURNServer: "turn:turn.example.com"})
	require.NoError(t, err)
	assert.True(t, cfg.ForceRelay)
}

func TestConfig_URLs(t *testing.T) {
	cfg := &Config{Domain: "relay.example.com"}
	assert.Equal(t, "wss://relay.example.com/ws", cfg.WebSocketURL())
	assert.Equal(t, "https://relay.example.com/?room=AbC123", cfg.RoomLink("AbC123"))
}

func TestConfig_TURNServers(t *testing.T) {
	cfg := &Config{}
	assert.Nil(t, cfg.TURNServers())

	cfg.TURNServer = "turn:turn.example.com"
	urls := cfg.TURNServers()
	require.Len(t, urls, 2)
	assert.Equal(t, "turn:turn.example.com:3478?transport=udp", urls[0])
	assert.Equal(t, "turn:turn.example.com:3478?transport=tcp", urls[1])
}
