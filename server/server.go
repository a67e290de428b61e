// Package server exposes the chat demo over HTTP.
package server

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/scttfrdmn/marketcrew/chat"
	"github.com/scttfrdmn/marketcrew/memory"
	"github.com/scttfrdmn/marketcrew/observability"
	"github.com/scttfrdmn/marketcrew/safety"
)

//go:embed static/index.html
var indexHTML []byte

// ChatRequest is the body of POST /api/chat and of each websocket message.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// HistoryResponse is the body of GET /api/chat/history/:session.
type HistoryResponse struct {
	SessionID string         `json:"session_id"`
	Messages  []memory.Entry `json:"messages"`
}

// Server routes chat requests to a Responder.
type Server struct {
	echo           *echo.Echo
	responder      *chat.Responder
	history        memory.Store
	historyLimit   int
	metrics        *observability.ChatMetrics
	metricsHandler http.Handler
	guard          *safety.MessageGuard
	tracer         trace.Tracer
	upgrader       websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithHistory stores every exchange in store.
func WithHistory(store memory.Store) Option {
	return func(s *Server) {
		s.history = store
	}
}

// WithHistoryLimit caps the entries returned by the history endpoint.
func WithHistoryLimit(limit int) Option {
	return func(s *Server) {
		s.historyLimit = limit
	}
}

// WithMetrics records chat metrics and serves handler at /metrics.
func WithMetrics(metrics *observability.ChatMetrics, handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = metrics
		s.metricsHandler = handler
	}
}

// WithGuard screens incoming messages.
func WithGuard(guard *safety.MessageGuard) Option {
	return func(s *Server) {
		s.guard = guard
	}
}

// New creates a server. History defaults to an in-memory store and the guard
// to a length check only.
func New(responder *chat.Responder, opts ...Option) *Server {
	s := &Server{
		echo:         echo.New(),
		responder:    responder,
		historyLimit: memory.DefaultLimit,
		tracer:       observability.Tracer("marketcrew/server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.history == nil {
		s.history = memory.NewInMemoryStore(0)
	}
	if s.guard == nil {
		s.guard = safety.NewMessageGuard(safety.DefaultMaxLength, nil)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(s.traceRequests)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogMethod:  true,
		LogURI:     true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				slog.ErrorContext(c.Request().Context(), "request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	}))

	e.GET("/", s.handleIndex)
	e.GET("/health", s.handleHealth)
	if s.metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}

	api := e.Group("/api/chat")
	api.POST("", s.handleChat)
	api.GET("/history/:session", s.handleHistory)
	api.GET("/ws", s.handleWebSocket)
}

// traceRequests opens a server span per request, continuing any remote trace.
func (s *Server) traceRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := observability.ExtractHTTP(req.Context(), req.Header)
		ctx, span := s.tracer.Start(ctx, req.Method+" "+c.Path(), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.route", c.Path()),
		)
		c.SetRequest(req.WithContext(ctx))

		err := next(c)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	slog.Info("chat server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server and closes the history store.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.echo.Shutdown(ctx)
	if cerr := s.history.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexHTML)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid chat request").SetInternal(err)
	}
	if err := s.guard.Check(req.Message); err != nil {
		slog.WarnContext(c.Request().Context(), "chat message rejected", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := s.answer(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to answer").SetInternal(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHistory(c echo.Context) error {
	session := c.Param("session")
	entries, err := s.history.History(c.Request().Context(), session, s.historyLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read history").SetInternal(err)
	}
	return c.JSON(http.StatusOK, HistoryResponse{SessionID: session, Messages: entries})
}

// answer runs one chat exchange and records it.
func (s *Server) answer(ctx context.Context, req ChatRequest) (*chat.Response, error) {
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	start := time.Now()
	resp, err := s.responder.Respond(ctx, req.Message)
	if s.metrics != nil {
		category := string(chat.Classify(req.Message))
		s.metrics.RecordRequest(ctx, category, time.Since(start), err)
		if err == nil {
			if resp.QAResult != nil {
				s.metrics.RecordQA(ctx, resp.QAResult.Passed)
			}
			if resp.Fallback {
				s.metrics.RecordFallback(ctx, category)
			}
		}
	}
	if err != nil {
		slog.ErrorContext(ctx, "chat request failed", "session_id", req.SessionID, "error", err)
		return nil, err
	}
	resp.SessionID = req.SessionID

	s.record(ctx, req.SessionID,
		memory.Entry{Role: memory.RoleUser, Content: req.Message},
		memory.Entry{Role: memory.RoleAssistant, Content: resp.Response, Category: string(resp.Category), Product: resp.Product},
	)
	return resp, nil
}

// record appends to history; failures are logged and do not fail the request.
func (s *Server) record(ctx context.Context, session string, entries ...memory.Entry) {
	for _, entry := range entries {
		if err := s.history.Append(ctx, session, entry); err != nil {
			slog.WarnContext(ctx, "failed to record chat history", "session_id", session, "error", err)
			return
		}
	}
}
