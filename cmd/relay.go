package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Mincrypt/P2p-share/internal/config"
	"github.com/Mincrypt/P2p-share/internal/logging"
	"github.com/Mincrypt/P2p-share/internal/relay"
)

var flagListen string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the signaling relay server",
	Long: `Run the WebSocket signaling relay that introduces peers to each other.

The relay only brokers room membership and forwards negotiation
messages; file data never passes through it. It also serves a health
endpoint and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.Options{
			ConfigPath: flagConfig,
			ListenAddr: flagListen,
			Debug:      flagDebug,
		})
		if err != nil {
			return err
		}

		log := logging.New(cfg.Debug, "relay")
		return relay.NewServer(cfg.ListenAddr, log).Run()
	},
}

func init() {
	relayCmd.Flags().StringVarP(&flagListen, "listen", "l", "", "address to listen on")
	rootCmd.AddCommand(relayCmd)
}
