// Package server orchestrates all components: COMMS session, WebSocket
// listener, hub construction, HTTP status page, and shutdown.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/proxy-hub/internal/config"
	"github.com/morezero/proxy-hub/pkg/bootstrap"
	"github.com/morezero/proxy-hub/pkg/commsutil"
	"github.com/morezero/proxy-hub/pkg/fsproxy"
	"github.com/morezero/proxy-hub/pkg/hub"
	"github.com/morezero/proxy-hub/pkg/proxy"
)

const logPrefix = "server:server"

// Server is the proxy-hub orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	hub        *hub.Hub
	httpServer *http.Server
	wsServer   *http.Server
}

// commsTransport sends outbound envelopes over the session's outbound subject.
type commsTransport struct {
	nc      *comms.Conn
	subject string
}

func (t *commsTransport) Send(data []byte) error {
	return t.nc.Publish(t.subject, data)
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info(fmt.Sprintf("%s - Starting proxy-hub", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Server{cfg: cfg}

	// Step 1: Load the builtin-module manifest
	manifest := bootstrap.LoadManifest(cfg.BootstrapFile)
	hcfg := cfg.HandshakeConfig()
	if hcfg != nil && hcfg.BuiltInExtensionsDirectory == "" {
		hcfg.BuiltInExtensionsDirectory = manifest.BuiltInExtensionsDirectory
	}

	// Step 2: Connect to COMMS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}
	s.nc = nc

	// Step 3: Create the session hub over the outbound subject
	outSubject := commsutil.BuildOutboundSubject(cfg.SessionName)
	inSubject := commsutil.BuildInboundSubject(cfg.SessionName)

	h, err := hub.New(&commsTransport{nc: nc, subject: outSubject}, hub.Options{
		Builtins:  buildBuiltins(manifest),
		Handshake: hcfg,
	})
	if err != nil {
		nc.Close()
		return fmt.Errorf("%s - failed to create hub: %w", logPrefix, err)
	}
	s.hub = h

	// Step 4: Subscribe the inbound subject; connection closure tears the
	// session down.
	sub, err := nc.Subscribe(inSubject, func(msg *comms.Msg) {
		h.HandleMessage(msg.Data)
	})
	if err != nil {
		nc.Close()
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, inSubject, err)
	}
	nc.SetClosedHandler(func(_ *comms.Conn) {
		slog.Info(fmt.Sprintf("%s - COMMS connection closed", logPrefix))
		h.Close()
	})
	slog.Info(fmt.Sprintf("%s - Session %q listening on %s", logPrefix, cfg.SessionName, inSubject))

	// Step 5: WebSocket listener (one hub per connection)
	if cfg.WSAddr != "" {
		s.wsServer = newWSServer(cfg.WSAddr, func(tr hub.Transport) (*hub.Hub, error) {
			return hub.New(tr, hub.Options{
				Builtins:  buildBuiltins(manifest),
				Handshake: cfg.HandshakeConfig(),
			})
		})
		go func() {
			slog.Info(fmt.Sprintf("%s - WebSocket listener on %s", logPrefix, cfg.WSAddr))
			if err := s.wsServer.ListenAndServe(); err != http.ErrServerClosed {
				slog.Error(fmt.Sprintf("%s - WebSocket server error: %v", logPrefix, err))
			}
		}()
	}

	// Step 6: HTTP status server
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		if h.Closed() {
			status = "closed"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":    status,
			"proxies":   len(h.Proxies()),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	s.httpServer = &http.Server{Addr: httpAddr, Handler: mux}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP status server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - Proxy-hub is ready", logPrefix))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown
	sub.Unsubscribe()
	if s.wsServer != nil {
		s.wsServer.Shutdown(ctx)
	}
	s.httpServer.Shutdown(ctx)
	h.Close()
	nc.Drain()

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// buildBuiltins instantiates the built-in proxies named by the manifest.
func buildBuiltins(m *bootstrap.Manifest) map[string]proxy.Proxy {
	builtins := make(map[string]proxy.Proxy, len(m.Modules))
	for _, name := range m.Modules {
		switch name {
		case fsproxy.ModuleName:
			builtins[name] = fsproxy.New()
		default:
			slog.Warn(fmt.Sprintf("%s - unknown builtin module %q, skipping", logPrefix, name))
		}
	}
	return builtins
}

// homePageTemplate is the HTML for the hub status page (white bg, black/blue text).
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Proxy Hub</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2 { color: #0066cc; }
    .status-healthy { color: #0066cc; font-weight: bold; }
    .status-closed { color: #cc0000; font-weight: bold; }
    table { border-collapse: collapse; width: 100%; max-width: 700px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
  </style>
</head>
<body>
  <h1>Proxy Hub</h1>
  <p class="meta">Session status and live proxy registry.</p>

  <section>
    <h2>Session</h2>
    <p>Status: <span class="status-{{.Status}}">{{.Status}}</span></p>
    <p>Timestamp: {{.Timestamp}}</p>
  </section>

  <section>
    <h2>Registered proxies</h2>
    {{if not .Proxies}}
    <p>No proxies registered.</p>
    {{else}}
    <table>
      <thead>
        <tr><th>Ref</th><th>Kind</th></tr>
      </thead>
      <tbody>
        {{range .Proxies}}
        <tr><td>{{.Ref}}</td><td>{{.Kind}}</td></tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>
</body>
</html>
`

// homeData is the data passed to the home page template.
type homeData struct {
	Status    string
	Timestamp string
	Proxies   []hub.ProxyInfo
}

// handleHome returns an HTTP handler for the hub status page.
func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		status := "healthy"
		if s.hub.Closed() {
			status = "closed"
		}
		data := homeData{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Proxies:   s.hub.Proxies(),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", logPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
