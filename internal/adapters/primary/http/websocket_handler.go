package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	mw "github.com/lorrc/service-desk-analytics/internal/adapters/primary/http/middleware"
	wsAdapter "github.com/lorrc/service-desk-analytics/internal/adapters/primary/websocket"
	"github.com/lorrc/service-desk-analytics/internal/config"
)

// WebSocketHandler handles WebSocket connection upgrades
type WebSocketHandler struct {
	hub      *wsAdapter.Hub
	tokens   mw.TokenValidator
	upgrader websocket.Upgrader
	timing   wsAdapter.Timing
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	tokens mw.TokenValidator,
	cfg *config.Config,
	logger *slog.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:    hub,
		tokens: tokens,
		timing: wsAdapter.Timing{
			PingInterval: cfg.WebSocket.PingInterval,
			PongWait:     cfg.WebSocket.PongWait,
		},
		logger: logger.With("handler", "websocket"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WebSocketHandler) makeOriginChecker(cfg *config.Config) func(r *http.Request) bool {
	allowedOrigins := cfg.WebSocket.AllowedOrigins

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// In development mode, allow all origins (but log a warning)
		if cfg.IsDevelopment() {
			if origin != "" {
				h.logger.Warn("allowing websocket connection in development mode",
					"origin", origin,
					"remote_addr", r.RemoteAddr,
				)
			}
			return true
		}

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		// Check against allowed origins
		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin",
				"origin", origin,
				"error", err,
			)
			return false
		}

		originHost := parsedOrigin.Host

		for _, allowed := range allowedOrigins {
			// Support wildcard subdomains like "*.example.com"
			if strings.HasPrefix(allowed, "*.") {
				suffix := allowed[1:] // Remove the "*", keep ".example.com"
				if strings.HasSuffix(originHost, suffix) || originHost == allowed[2:] {
					return true
				}
			} else if originHost == allowed {
				return true
			}
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
			"allowed_origins", allowedOrigins,
		)
		return false
	}
}

// ServeHTTP handles WebSocket connection requests. Browsers cannot set an
// Authorization header on the upgrade, so the operator token travels in the
// token query parameter.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// 1. Authenticate the connection via query parameter
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		h.logger.WarnContext(ctx, "websocket connection rejected: missing token",
			"remote_addr", r.RemoteAddr,
		)
		http.Error(w, "Missing authentication token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.ValidateToken(tokenString)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket connection rejected: invalid token",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	// 2. Upgrade the connection
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to upgrade websocket connection",
			"subject", claims.Subject,
			"error", err,
		)
		return
	}

	// 3. Create and register the new client
	client := wsAdapter.NewClient(h.hub, conn, claims.Subject, h.timing, h.logger)
	if !h.hub.RegisterClient(client) {
		h.logger.WarnContext(ctx, "websocket hub stopped, closing connection",
			"subject", claims.Subject,
		)
		_ = conn.Close()
		return
	}

	h.logger.InfoContext(ctx, "websocket connection established",
		"client_id", client.ID,
		"subject", claims.Subject,
		"remote_addr", r.RemoteAddr,
	)

	// 4. Start the I/O pumps in new goroutines
	go client.WritePump()
	go client.ReadPump()
}
