package cmd

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Mincrypt/P2p-share/internal/config"
	"github.com/Mincrypt/P2p-share/internal/peer"
	"github.com/Mincrypt/P2p-share/internal/signaling"
	"github.com/Mincrypt/P2p-share/internal/transfer"
	"github.com/Mincrypt/P2p-share/internal/ui"
)

// signalingTimeout bounds how long we wait for a direct reply from the
// relay. Waiting for the other peer is unbounded.
const signalingTimeout = 30 * time.Second

// ConnectionContext bundles the signaling client and its message
// handler for the lifetime of one command.
type ConnectionContext struct {
	Client  *signaling.Client
	Handler *signaling.Handler
	Config  *config.Config
}

func NewConnectionContext(cfg *config.Config) (*ConnectionContext, error) {
	client := signaling.NewClient(cfg.WebSocketURL())
	if err := client.Connect(); err != nil {
		return nil, transfer.NewError("connect to server", err)
	}

	handler := signaling.NewHandler(client)
	go handler.Start()

	return &ConnectionContext{
		Client:  client,
		Handler: handler,
		Config:  cfg,
	}, nil
}

func (c *ConnectionContext) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

// SignalSender returns the outbound half of the negotiation for the
// given room.
func (c *ConnectionContext) SignalSender(roomID string) peer.SignalSender {
	return &relaySignalSender{client: c.Client, roomID: roomID}
}

type relaySignalSender struct {
	client *signaling.Client
	roomID string
}

func (s *relaySignalSender) SendSignal(payload signaling.SignalPayload) error {
	msg, err := signaling.NewSignalMessage(s.roomID, payload)
	if err != nil {
		return err
	}
	s.client.SendMessage(msg)
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		ConfigPath: flagConfig,
		Domain:     flagDomain,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
		ForceRelay: flagForceRelay,
		Debug:      flagDebug,
	})
	if err != nil {
		return nil, transfer.NewError("load config", err)
	}

	if !cfg.ForceRelay && cfg.TURNServer != "" && peer.BehindRestrictiveNAT() {
		cfg.ForceRelay = true
		ui.PrintInfo("Restrictive network detected, routing through the TURN relay")
	}

	return cfg, nil
}

func transferPolicy(cfg *config.Config) transfer.Policy {
	return transfer.Policy{
		ChunkSize:     cfg.ChunkSize,
		HighWaterMark: uint64(cfg.HighWaterMark),
	}
}

func createRoom(conn *ConnectionContext) (string, error) {
	conn.Client.SendMessage(&signaling.Message{Type: signaling.MessageTypeCreate})

	select {
	case roomID := <-conn.Handler.RoomCreated:
		return roomID, nil
	case errMsg := <-conn.Handler.Error:
		return "", transfer.WrapError("create room", transfer.ErrSignaling, errMsg)
	case <-conn.Handler.Disconnected:
		return "", transfer.NewError("create room", transfer.ErrChannelClosed)
	case <-time.After(signalingTimeout):
		return "", transfer.WrapError("create room", transfer.ErrTimeout, "no response from server")
	}
}

func joinRoom(conn *ConnectionContext, roomID string) error {
	conn.Client.SendMessage(&signaling.Message{Type: signaling.MessageTypeJoin, RoomID: roomID})

	select {
	case <-conn.Handler.Joined:
		return nil
	case errMsg := <-conn.Handler.Error:
		return transfer.WrapError("join room", transfer.ErrSignaling, errMsg)
	case <-conn.Handler.Disconnected:
		return transfer.NewError("join room", transfer.ErrChannelClosed)
	case <-time.After(signalingTimeout):
		return transfer.WrapError("join room", transfer.ErrTimeout, "no response from server")
	}
}

func waitForPeer(conn *ConnectionContext) error {
	stop := ui.RunWaitingSpinner("Waiting for a peer to join...")
	defer stop()

	select {
	case <-conn.Handler.PeerJoined:
		return nil
	case errMsg := <-conn.Handler.Error:
		return transfer.WrapError("wait for peer", transfer.ErrSignaling, errMsg)
	case <-conn.Handler.Disconnected:
		return transfer.NewError("wait for peer", transfer.ErrChannelClosed)
	}
}

// forwardSignals feeds relayed negotiation payloads into the
// coordinator until the relay connection or the handler goes away.
func forwardSignals(conn *ConnectionContext, coord *peer.Coordinator) {
	for {
		select {
		case sig := <-conn.Handler.Signal:
			if sig == nil {
				return
			}
			if err := coord.HandleSignal(sig); err != nil {
				return
			}
		case <-conn.Handler.Disconnected:
			return
		}
	}
}

// parseRoomInput accepts either a bare room id or a full share link
// with a room query parameter.
func parseRoomInput(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("room id is required")
	}

	if strings.Contains(arg, "://") {
		u, err := url.Parse(arg)
		if err != nil {
			return "", transfer.NewError("parse room link", err)
		}
		if roomID := u.Query().Get("room"); roomID != "" {
			return roomID, nil
		}
		return "", fmt.Errorf("link has no room parameter")
	}

	return arg, nil
}
