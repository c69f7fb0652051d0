package relay

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,

	// Room ids are the only access control; the relay accepts
	// connections from any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server assembles the relay's HTTP surface: the websocket signaling
// endpoint, a health check, and Prometheus metrics.
type Server struct {
	relay   *Relay
	metrics *Metrics
	log     zerolog.Logger
	addr    string
	prom    *prometheus.Registry
}

func NewServer(addr string, log zerolog.Logger) *Server {
	prom := prometheus.NewRegistry()
	metrics := NewMetrics(prom)
	registry := NewRegistry()
	return &Server{
		relay:   NewRelay(registry, metrics, log),
		metrics: metrics,
		log:     log,
		addr:    addr,
		prom:    prom,
	}
}

// Handler returns the relay's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(s.prom, promhttp.HandlerOpts{}))
	return mux
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	s.log.Info().Str("addr", s.addr).Msg("signaling relay listening")
	return http.ListenAndServe(s.addr, s.Handler())
}

// serveWs upgrades the HTTP connection and starts the client pumps.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		relay: s.relay,
		conn:  conn,
		log:   s.log.With().Str("remote", conn.RemoteAddr().String()).Logger(),
		send:  make(chan *Message, 256),
	}

	s.metrics.ConnectionsOpen.Inc()
	client.log.Debug().Msg("client connected")

	go client.WritePump()
	go func() {
		client.ReadPump()
		s.metrics.ConnectionsOpen.Dec()
		client.log.Debug().Msg("client disconnected")
	}()
}
