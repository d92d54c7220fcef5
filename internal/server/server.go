package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/hoanle0126/LuxeBeauty-sub003/internal/auth"
	"github.com/hoanle0126/LuxeBeauty-sub003/internal/ingress"
	"github.com/hoanle0126/LuxeBeauty-sub003/internal/router"
	"github.com/hoanle0126/LuxeBeauty-sub003/internal/server/middleware"
	"github.com/hoanle0126/LuxeBeauty-sub003/pkg/config"
	"github.com/hoanle0126/LuxeBeauty-sub003/pkg/state"
	"github.com/hoanle0126/LuxeBeauty-sub003/pkg/state/statemanager"
	"github.com/hoanle0126/LuxeBeauty-sub003/pkg/transport"
)

type App struct {
	logger      *slog.Logger
	registry    state.Manager
	eventRouter *router.EventRouter
	wg          sync.WaitGroup
	http        *http.Server
	config      *config.Config

	ctx context.Context
}

func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config) *App {
	registry := statemanager.NewInMemoryManager(logger)
	eventRouter := router.NewEventRouter(logger, registry)
	gateway := auth.NewGateway(logger, cfg.Backend.BaseURL, cfg.Backend.VerifyTimeout)

	app := &App{
		logger:      logger,
		registry:    registry,
		eventRouter: eventRouter,
		config:      cfg,
		ctx:         rootCtx,
	}

	// Closes a user's oldest connection to make room for a new one when the
	// per-user limit runs in "cycle" mode.
	connCycler := func(userID string) {
		oldest, found := registry.FindOldestUserConnection(userID)
		if found {
			logger.Info("Cycling connection: closing oldest", slog.String("userID", userID), slog.String("connID", oldest.ID.String()))
			oldest.Transport.Close(errors.New("connection cycled by new connection"))
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/ws",
		middleware.Chain(http.HandlerFunc(app.upgradeHandler),
			middleware.RequestMetadataMiddleware(),
			middleware.NewRequestLogger(logger),
			middleware.NewAuthMiddleware(logger, gateway),
			middleware.NewConnectionLimiter(
				logger,
				registry.GetUserConnectionCount,
				connCycler,
				cfg.Server.ConnectionLimit,
			),
		),
	)
	mux.Handle("/api/notify",
		middleware.Chain(ingress.NewHandler(logger, eventRouter),
			middleware.RequestMetadataMiddleware(),
			middleware.NewRequestLogger(logger),
		),
	)

	app.http = &http.Server{Addr: cfg.Server.Address, Handler: mux, BaseContext: func(l net.Listener) context.Context {
		return app.ctx
	}}

	return app
}

func (a *App) Run() error {
	go func() {
		a.logger.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
		}
	}()

	<-a.ctx.Done()
	return a.Shutdown()
}

func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, ok := middleware.ReqMetadataFrom(r.Context())
	if !ok || reqMeta.Profile == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	profile := reqMeta.Profile
	connLogger := a.logger.With(
		slog.String("remoteAddr", reqMeta.IP),
		slog.String("userID", profile.ID),
	)

	acceptOpts := &websocket.AcceptOptions{
		OriginPatterns: a.config.Server.AllowedOrigins,
	}
	if len(acceptOpts.OriginPatterns) == 0 {
		acceptOpts.InsecureSkipVerify = true
	}
	wsConn, err := websocket.Accept(w, r, acceptOpts)
	if err != nil {
		a.logger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	conn := transport.NewConnection(
		r.Context(),
		&a.wg,
		wsConn,
		transport.ConnectionConfig(a.config.Transport),
		a.logger,
	)
	stateConn, err := a.registry.RegisterConnection(conn, reqMeta.IP)
	if err != nil {
		connLogger.Error("Failed to register connection state", slog.Any("error", err))
		conn.Close(err)
		return
	}
	if _, err := a.registry.AssociateUser(stateConn.ID, *profile); err != nil {
		connLogger.Error("Failed to associate user with connection", slog.Any("error", err))
		conn.Close(err)
		return
	}

	// every connection lives in its user's personal room; admins also share
	// the admin room.
	if err := a.joinEntitledRooms(profile); err != nil {
		connLogger.Error("Failed to join rooms", slog.Any("error", err))
		conn.Close(err)
		return
	}

	conn.SetOnMessageHandler(a.eventRouter.HandleMessage)
	conn.SetOnCloseHandler(func(id uuid.UUID, err error) {
		connLogger.Info("Deregistering connection due to closure", slog.String("connID", id.String()))
		if dErr := a.registry.DeregisterConnection(id); dErr != nil {
			connLogger.Error("Failed to deregister connection from state", slog.Any("error", dErr))
		}
	})

	connLogger.Info("User connection fully established", slog.Any("roles", profile.Roles.Names()))
	conn.Run()
	a.eventRouter.AnnounceConnected(stateConn)
	<-conn.Done()
}

func (a *App) joinEntitledRooms(profile *state.Profile) error {
	if err := a.registry.Join(profile.ID, state.UserRoom(profile.ID)); err != nil {
		return err
	}
	if profile.Roles.IsAdmin() {
		return a.registry.Join(profile.ID, state.AdminRoom)
	}
	return nil
}

// graceful shutdown sequence.
func (a *App) Shutdown() error {
	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// close all active WebSocket connections.
	a.logger.Info("Closing all active connections...")
	for _, conn := range a.registry.AllConnections() {
		conn.Transport.Close(errors.New("graceful shutdown"))
	}

	// wait for all connection goroutines to finish their cleanup.
	a.wg.Wait()
	a.logger.Info("Server shut down gracefully.")
	return nil
}
