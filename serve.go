package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/racetrack/api"
	"github.com/wricardo/racetrack/game/config"
	"github.com/wricardo/racetrack/game/service"
	"github.com/wricardo/racetrack/game/session"
	"github.com/wricardo/racetrack/transport/mcp"
	"github.com/wricardo/racetrack/transport/websocket"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP server with REST API, WebSocket and MCP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
			&cli.StringFlag{Name: "tracks-dir", Usage: "directory containing track files"},
			&cli.StringFlag{Name: "store", Usage: "session store: memory, file, sqlite or postgres"},
			&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: runServe,
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp"},
		Usage:   "run an MCP stdio server backed by the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "HTTP API to proxy to; an internal one is started when unreachable"},
		},
		Action: runMCP,
	}
}

// applyServeFlags overrides settings with the serve command flags
func applyServeFlags(cmd *cli.Command, settings *config.Settings) error {
	if cmd.IsSet("host") {
		settings.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		settings.Server.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("tracks-dir") {
		settings.Tracks.Dir = cmd.String("tracks-dir")
	}
	if cmd.IsSet("store") {
		settings.Store.Driver = cmd.String("store")
	}
	if cmd.IsSet("ngrok-domain") {
		settings.Ngrok.Domain = cmd.String("ngrok-domain")
	}
	return settings.Validate()
}

// services is the wired application
type services struct {
	race     service.RaceService
	sessions *session.Manager
	hub      *websocket.Hub
	handler  *api.Server
}

// openPersistence selects the session store
func openPersistence(s config.StoreSettings) (session.SessionPersistence, error) {
	switch s.Driver {
	case "memory":
		return nil, nil
	case "file":
		return session.NewFilePersistence(s.Dir)
	case "sqlite", "postgres":
		db, err := session.OpenDB(s.Driver, s.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", s.Driver, err)
		}
		return session.NewSQLPersistence(db)
	}
	return nil, fmt.Errorf("unknown store driver %q", s.Driver)
}

// initializeServices wires catalog, sessions, race service, websocket hub and
// API. Persisted races of a previous run are purged.
func initializeServices(settings *config.Settings, logger zerolog.Logger) (*services, error) {
	catalog, err := config.NewManager(settings.Tracks.Dir, settings.Moves.Dir, settings.Paths.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create track catalog: %w", err)
	}

	persistence, err := openPersistence(settings.Store)
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(logger)
	if persistence != nil {
		sessions = session.NewManagerWithPersistence(persistence, logger)
		if err := sessions.Purge(); err != nil {
			return nil, err
		}
	}

	raceService := service.NewRaceService(sessions, catalog, logger)
	hub := websocket.NewHub(logger)
	raceService.OnTurn(hub.OnTurn)

	return &services{
		race:     raceService,
		sessions: sessions,
		hub:      hub,
		handler:  api.NewServer(raceService, hub, logger),
	}, nil
}

// start runs the hub and the session cleanup until ctx is done
func (s *services) start(ctx context.Context, ttl time.Duration) {
	go s.hub.Run(ctx)
	if ttl > 0 {
		interval := ttl / 2
		if interval > time.Minute {
			interval = time.Minute
		}
		go s.sessions.RunCleanup(interval, ttl, ctx.Done())
	}
}

// mcpHandler serves single MCP JSON-RPC messages over HTTP POST
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, settings); err != nil {
		return err
	}
	logger, err := newLogger(settings.Log)
	if err != nil {
		return err
	}

	logger.Info().Str("version", Version).Str("store", settings.Store.Driver).Msgf("starting %s server", AppName)

	svc, err := initializeServices(settings, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	svc.start(ctx, settings.Session.TTL)

	addr := settings.Server.Addr()
	host := settings.Server.Host
	if host == "" {
		host = "localhost"
	}
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s:%d", host, settings.Server.Port))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", svc.handler)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     mainRouter,
		ReadTimeout: 15 * time.Second,
		// Autoplay of long races can take a while
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info().
			Str("addr", addr).
			Str("api", fmt.Sprintf("http://%s:%d/api", host, settings.Server.Port)).
			Str("websocket", fmt.Sprintf("ws://%s:%d/ws?session=<session_id>", host, settings.Server.Port)).
			Str("mcp", fmt.Sprintf("http://%s:%d/mcp", host, settings.Server.Port)).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			cancel()
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd.String("ngrok-auth"), settings.Ngrok.Domain, mainRouter, logger)
		}()
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	logger.Info().Msg("server stopped")

	select {
	case err := <-serveErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	default:
		return nil
	}
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler, logger zerolog.Logger) {
	if authToken == "" {
		logger.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	ngrokServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		ngrokServer.Close()
	}()

	logger.Info().
		Str("url", tun.URL()).
		Str("api", tun.URL()+"/api").
		Str("mcp", tun.URL()+"/mcp").
		Msg("ngrok tunnel established")

	if err := ngrokServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("ngrok server error")
	}
	logger.Info().Msg("ngrok tunnel closed")
}

// apiReachable reports whether an HTTP API answers at baseURL
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runMCP runs an MCP stdio server. It reuses the API at --api-url; if that is
// unavailable it starts an internal API on a random loopback port.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(settings.Log)
	if err != nil {
		return err
	}

	baseURL := cmd.String("api-url")
	if apiReachable(baseURL) {
		logger.Info().Str("api", baseURL).Msg("using external API server for MCP")
	} else {
		logger.Info().Str("api", baseURL).Msg("no external API server found, starting internal HTTP server")

		// Races of the internal server live only as long as this process
		settings.Store.Driver = "memory"
		svc, err := initializeServices(settings, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		svc.start(ctx, settings.Session.TTL)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		httpServer := &http.Server{Handler: svc.handler}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		logger.Info().Str("api", baseURL).Msg("internal HTTP server started")
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info().Msg("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
