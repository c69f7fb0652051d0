package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/spf13/cobra"

	"github.com/Mincrypt/P2p-share/internal/files"
	"github.com/Mincrypt/P2p-share/internal/logging"
	"github.com/Mincrypt/P2p-share/internal/peer"
	"github.com/Mincrypt/P2p-share/internal/transfer"
	"github.com/Mincrypt/P2p-share/internal/ui"
)

var flagPassword string

var sendCmd = &cobra.Command{
	Use:     "send <file>",
	Aliases: []string{"s"},
	Short:   "Send a file to a receiver",
	Long: `Send a file directly to a receiver over a WebRTC data channel.

The command creates a room on the relay and prints its id and share
link. The receiver joins with "p2pshare receive <room>" or by opening
the link in a browser.

Examples:
  p2pshare send report.pdf
  p2pshare send --password hunter2 report.pdf
  p2pshare send --domain relay.example.com report.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendFile(args[0])
	},
}

func init() {
	sendCmd.Flags().StringVarP(&flagPassword, "password", "p", "", "require this password before the transfer starts")
	rootCmd.AddCommand(sendCmd)
}

func sendFile(path string) error {
	stopSpinner := ui.RunSpinner("Preparing file...")
	defer stopSpinner()
	info, cleanup, err := resolveSource(path)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}
	stopSpinner()

	fmt.Println()
	ui.RenderFileInfo(info.Name, info.Size, info.Type)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.NewConsole(cfg.Debug, "send")

	fmt.Println()
	stopSpinner = ui.RunConnectionSpinner("Connecting to server...")
	defer stopSpinner()
	conn, err := NewConnectionContext(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	stopSpinner()

	roomID, err := createRoom(conn)
	if err != nil {
		return err
	}
	ui.RenderRoomInfo(roomID, cfg.RoomLink(roomID))

	if err := waitForPeer(conn); err != nil {
		return err
	}

	coord, err := peer.New(cfg, peer.RoleInitiator, conn.SignalSender(roomID), log)
	if err != nil {
		return transfer.NewError("create peer connection", err)
	}
	defer coord.Close()

	dc, err := coord.PeerConnection().CreateDataChannel("file", nil)
	if err != nil {
		return transfer.NewError("create data channel", err)
	}

	sender := transfer.NewSender(dc, transferPolicy(cfg), log)

	var passwordHash string
	if flagPassword != "" {
		passwordHash = transfer.HashPassword(flagPassword)
	}
	meta := transfer.NewMeta(info.Name, info.Size, info.Type, passwordHash)

	bar := ui.NewTransferBar(info.Name, info.Size)
	sender.OnProgress(func(sent int64) { bar.Update(sent) })

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := make(chan error, 1)
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if msg.IsString {
			sender.HandleControl(msg.Data)
		}
	})
	dc.OnOpen(func() {
		go func() {
			f, err := os.Open(info.Path)
			if err != nil {
				result <- transfer.NewError("open file", err)
				return
			}
			defer f.Close()
			result <- sender.Run(runCtx, meta, f)
		}()
	})

	go forwardSignals(conn, coord)

	if err := coord.StartOffer(); err != nil {
		return transfer.NewError("start negotiation", err)
	}

	connSpinner := ui.NewWaitingSpinner("Establishing direct connection...")
	connSpinner.Start()
	select {
	case <-coord.Connected:
		connSpinner.Success("Direct connection established")
	case <-coord.Failed:
		connSpinner.Stop()
		return transfer.NewError("establish connection", transfer.ErrPeerDisconnected)
	case errMsg := <-conn.Handler.Error:
		connSpinner.Stop()
		return transfer.WrapError("establish connection", transfer.ErrSignaling, errMsg)
	case <-conn.Handler.Disconnected:
		connSpinner.Stop()
		return transfer.NewError("establish connection", transfer.ErrChannelClosed)
	}

	start := time.Now()
	barDone := make(chan struct{})
	go bar.RunLoop(barDone)

	var runErr error
	select {
	case runErr = <-result:
	case <-coord.Failed:
		cancel()
		runErr = transfer.NewError("transfer", transfer.ErrPeerDisconnected)
	case <-conn.Handler.PeerLeft:
		cancel()
		runErr = transfer.NewError("transfer", transfer.ErrPeerDisconnected)
	}
	close(barDone)
	fmt.Println()

	summary := ui.TransferSummary{Name: info.Name, Size: info.Size, Duration: time.Since(start)}
	if runErr != nil {
		summary.Status = "Failed"
		ui.RenderTransferSummary(summary)
		return runErr
	}

	// Run returns once the final frames are queued; give SCTP a moment
	// to drain before the connection is torn down.
	drainChannel(dc)

	summary.Status = "Sent"
	ui.RenderTransferSummary(summary)
	return nil
}

// resolveSource validates the path, zipping a directory into a
// temporary archive so it travels as a single file. cleanup is non-nil
// only when an archive was created.
func resolveSource(path string) (files.FileInfo, func(), error) {
	stat, err := os.Stat(path)
	if err != nil {
		return files.FileInfo{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	if stat.IsDir() {
		return files.Archive(path)
	}
	info, err := files.Validate(path)
	return info, nil, err
}

func drainChannel(dc *webrtc.DataChannel) {
	deadline := time.Now().Add(10 * time.Second)
	for dc.BufferedAmount() > 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
}
