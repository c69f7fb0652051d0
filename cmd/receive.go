package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/spf13/cobra"

	"github.com/Mincrypt/P2p-share/internal/files"
	"github.com/Mincrypt/P2p-share/internal/logging"
	"github.com/Mincrypt/P2p-share/internal/peer"
	"github.com/Mincrypt/P2p-share/internal/transfer"
	"github.com/Mincrypt/P2p-share/internal/ui"
)

var flagOutDir string

var receiveCmd = &cobra.Command{
	Use:     "receive <room>",
	Aliases: []string{"r"},
	Short:   "Receive a file from a sender",
	Long: `Join a room and receive the file offered by its sender.

The room argument is either the id printed by "p2pshare send" or the
full share link.

Examples:
  p2pshare receive Xy3_k9QzPm
  p2pshare receive "https://p2p-share.fly.dev/?room=Xy3_k9QzPm"
  p2pshare receive --dir ~/Downloads Xy3_k9QzPm`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return receiveFile(args[0])
	},
}

func init() {
	receiveCmd.Flags().StringVarP(&flagOutDir, "dir", "o", ".", "directory to save the received file in")
	rootCmd.AddCommand(receiveCmd)
}

func receiveFile(roomArg string) error {
	roomID, err := parseRoomInput(roomArg)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.NewConsole(cfg.Debug, "receive")

	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	defer stopSpinner()
	conn, err := NewConnectionContext(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	stopSpinner()

	if err := joinRoom(conn, roomID); err != nil {
		return err
	}

	coord, err := peer.New(cfg, peer.RoleResponder, conn.SignalSender(roomID), log)
	if err != nil {
		return transfer.NewError("create peer connection", err)
	}
	defer coord.Close()

	barDone := make(chan struct{})
	var barOnce sync.Once
	var bar *ui.TransferBar

	ready := make(chan *transfer.Receiver, 1)
	coord.PeerConnection().OnDataChannel(func(dc *webrtc.DataChannel) {
		recv := transfer.NewReceiver(dc, log)
		// The progress callback is wired before OnMessage so the first
		// chunk cannot race its registration.
		recv.OnProgress(func(received, total int64) {
			barOnce.Do(func() {
				bar = ui.NewTransferBar(recv.Meta().Name, total)
				go bar.RunLoop(barDone)
			})
			bar.Update(received)
		})
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			if msg.IsString {
				recv.HandleControl(msg.Data)
			} else {
				recv.HandleChunk(msg.Data)
			}
		})
		dc.OnClose(recv.HandleClose)
		ready <- recv
	})

	go forwardSignals(conn, coord)

	waitSpinner := ui.NewWaitingSpinner("Waiting for the sender...")
	waitSpinner.Start()
	var recv *transfer.Receiver
	select {
	case recv = <-ready:
		waitSpinner.Success("Sender connected")
	case <-coord.Failed:
		waitSpinner.Stop()
		return transfer.NewError("establish connection", transfer.ErrPeerDisconnected)
	case errMsg := <-conn.Handler.Error:
		waitSpinner.Stop()
		return transfer.WrapError("establish connection", transfer.ErrSignaling, errMsg)
	case <-conn.Handler.Disconnected:
		waitSpinner.Stop()
		return transfer.NewError("establish connection", transfer.ErrChannelClosed)
	}

	start := time.Now()
	disconnected := conn.Handler.Disconnected
	for {
		select {
		case meta := <-recv.PasswordRequired:
			if err := promptUnlock(recv, meta); err != nil {
				close(barDone)
				return err
			}

		case res := <-recv.Done:
			close(barDone)
			fmt.Println()
			path, err := saveFile(flagOutDir, res)
			if err != nil {
				return transfer.NewError("save file", err)
			}
			ui.RenderTransferSummary(ui.TransferSummary{
				Status:   "Received",
				Name:     res.Meta.Name,
				Size:     int64(len(res.Data)),
				Duration: time.Since(start),
			})
			ui.PrintSuccessf("Saved to %s", path)
			return nil

		case err := <-recv.Failed:
			close(barDone)
			fmt.Println()
			return transfer.NewError("receive file", err)

		case <-coord.Failed:
			// The data channel close callback decides whether this
			// counts as truncation.
			recv.HandleClose()
			if recv.State() == transfer.StateIdle {
				close(barDone)
				return transfer.NewError("receive file", transfer.ErrPeerDisconnected)
			}

		case <-conn.Handler.PeerLeft:
			// The sender left the relay; the direct channel may still
			// finish the transfer on its own.

		case <-disconnected:
			// Losing the relay mid-transfer is harmless once the
			// direct channel is up.
			disconnected = nil
		}
	}
}

// promptUnlock loops on stdin until the sender's password gate opens.
func promptUnlock(recv *transfer.Receiver, meta transfer.Meta) error {
	ui.PrintInfo(fmt.Sprintf("%q is password protected", meta.Name))
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return transfer.NewError("read password", err)
		}

		ok, err := recv.SubmitPassword(strings.TrimSpace(line))
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		ui.PrintWarning("Wrong password, try again")
	}
}

func saveFile(dir string, res transfer.Result) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	// The sender controls the advertised name; strip any path part.
	name := filepath.Base(res.Meta.Name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "received.bin"
	}

	path := files.UniqueName(filepath.Join(dir, name))
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
