package cmd

import (
	"os"
	"os/signal"

	"github.com/Mincrypt/P2p-share/internal/ui"
	"github.com/Mincrypt/P2p-share/internal/version"
	"github.com/spf13/cobra"
)

var (
	flagConfig     string
	flagDomain     string
	flagSTUN       string
	flagTURN       string
	flagTURNUser   string
	flagTURNPass   string
	flagForceRelay bool
	flagDebug      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "p2pshare",
	Short:   "Peer-to-peer file sharing over WebRTC, compatible with browser peers",
	Long: `p2pshare transfers files directly between two peers over a WebRTC data
channel. A lightweight relay server brokers the introduction: the sender
creates a room, shares its id or link, and the receiver joins from another
terminal or from a browser. Once the peers negotiate a direct connection
the relay is out of the data path entirely.`,
	Version: version.Version,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "path to a YAML config file")
	pf.StringVarP(&flagDomain, "domain", "d", "", "relay server domain")
	pf.StringVar(&flagSTUN, "stun", "", "STUN server address")
	pf.StringVar(&flagTURN, "turn", "", "TURN server address")
	pf.StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	pf.StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
	pf.BoolVar(&flagForceRelay, "force-relay", false, "route media through the TURN server only")
	pf.BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
