// Package ws serves the live roster channel over WebSocket.
//
// Each connection gets a subscriber queue drained by its own frame writer,
// and an auto-generator toggled by the client.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/codrutul/roster/internal/adapters/broadcast"
	"github.com/codrutul/roster/internal/adapters/mq/worker"
	"github.com/codrutul/roster/internal/domain/autogen"
	"github.com/codrutul/roster/internal/domain/model"
	"github.com/codrutul/roster/pkg/logger"
)

const (
	defaultWriteTimeout    = 5 * time.Second
	maxPayloadBytes        = 64 << 10
	maxDecodeErrorsPerConn = 8
)

// Error codes carried by error frames.
const (
	CodeInvalidFrame     = "invalid_frame"
	CodeInvalidPayload   = "invalid_payload"
	CodeUnsupportedEvent = "unsupported_event"
	CodeInternal         = "internal_error"
)

// ErrOriginNotAllowed rejects a handshake from an unlisted origin.
var ErrOriginNotAllowed = errors.New("origin not allowed")

// Service is the roster surface a connection needs.
type Service interface {
	Subscribe(ctx context.Context) (*broadcast.Subscriber, error)
	Unsubscribe(sub *broadcast.Subscriber)
	RequestStats(ctx context.Context, sub *broadcast.Subscriber) error
	NewAutoGenerator() *autogen.Generator
}

// ErrorPayload is the data of an error frame.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Handler upgrades GET requests and runs one session per connection.
type Handler struct {
	svc            Service
	allowedOrigins []string
	writeTimeout   time.Duration
	logger         logger.Logger

	// base is cancelled by Close and ends every live connection.
	base   context.Context
	cancel context.CancelFunc
	conns  sync.WaitGroup

	server websocket.Server
}

// NewHandler creates a socket handler backed by svc.
func NewHandler(svc Service, opts ...Option) *Handler {
	h := &Handler{
		svc:          svc,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("ws")
	}
	h.base, h.cancel = context.WithCancel(context.Background())
	h.server = websocket.Server{
		Handshake: h.handshake,
		Handler:   h.serveConn,
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.server.ServeHTTP(w, r)
}

// Close ends every live connection and waits for their sessions to finish.
func (h *Handler) Close() {
	h.cancel()
	h.conns.Wait()
}

// handshake accepts requests without an Origin header (non-browser clients)
// and browsers whose origin is allowed.
func (h *Handler) handshake(config *websocket.Config, r *http.Request) error {
	origin, err := websocket.Origin(config, r)
	if err != nil {
		return fmt.Errorf("parse origin: %w", err)
	}
	config.Origin = origin
	if origin == nil {
		return nil
	}
	if slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin.String()) {
		return nil
	}
	h.logger.Warn(r.Context(), "socket origin rejected", logger.String("origin", origin.String()))
	return fmt.Errorf("%w: %s", ErrOriginNotAllowed, origin)
}

func (h *Handler) serveConn(conn *websocket.Conn) {
	h.conns.Add(1)
	defer h.conns.Done()

	conn.MaxPayloadBytes = maxPayloadBytes
	// Hijacked connections keep the server's request deadlines.
	_ = conn.SetDeadline(time.Time{})

	ctx, cancel := context.WithCancel(h.base)
	defer cancel()

	sub, err := h.svc.Subscribe(ctx)
	if err != nil {
		h.logger.Error(ctx, "subscribe failed", logger.Error(err))
		_ = websocket.JSON.Send(conn, mustErrorFrame(CodeInternal, "stats unavailable"))
		_ = conn.Close()
		return
	}
	log := h.logger.With(logger.Any("subscriber", sub.ID()))
	log.Debug(ctx, "socket connected")

	gen := h.svc.NewAutoGenerator()
	writer := worker.NewFrameWriter(sub.Queue(), &peer{conn: conn},
		worker.WithName(fmt.Sprintf("ws-%d", sub.ID())),
		worker.WithLogger(log),
		worker.WithWriteTimeout(h.writeTimeout),
	)
	go func() {
		// A dead writer means a dead socket; closing it unblocks the reader.
		defer conn.Close()
		if err := writer.Run(ctx); err != nil {
			log.Debug(ctx, "socket writer stopped", logger.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	defer func() {
		gen.Stop()
		h.svc.Unsubscribe(sub)
		cancel()
		<-writer.Done()
		log.Debug(context.Background(), "socket disconnected")
	}()

	h.readLoop(ctx, conn, sub, gen, log)
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, sub *broadcast.Subscriber, gen *autogen.Generator, log logger.Logger) {
	decodeErrors := 0
	for {
		var f model.Frame
		if err := websocket.JSON.Receive(conn, &f); err != nil {
			if !isDecodeError(err) {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					log.Debug(ctx, "socket read failed", logger.Error(err))
				}
				return
			}
			decodeErrors++
			reply(ctx, sub, CodeInvalidFrame, "frames must be JSON objects with an event field")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		switch f.Event {
		case model.EventToggleAutoGenerate:
			var on bool
			if err := json.Unmarshal(f.Data, &on); err != nil {
				reply(ctx, sub, CodeInvalidPayload, "toggleAutoGenerate expects a boolean")
				continue
			}
			if gen.Set(ctx, on) {
				log.Debug(ctx, "auto-generate toggled", logger.String("state", gen.State().String()))
			}
		case model.EventRequestStats:
			if err := h.svc.RequestStats(ctx, sub); err != nil {
				log.Error(ctx, "request stats failed", logger.Error(err))
				reply(ctx, sub, CodeInternal, "stats unavailable")
			}
		default:
			reply(ctx, sub, CodeUnsupportedEvent, fmt.Sprintf("unsupported event %q", f.Event))
		}
	}
}

// reply queues an error frame behind any frames already pending for sub.
func reply(ctx context.Context, sub *broadcast.Subscriber, code, msg string) {
	sub.Queue().Enqueue(ctx, mustErrorFrame(code, msg))
}

func mustErrorFrame(code, msg string) model.Frame {
	f, err := model.NewFrame(model.EventError, ErrorPayload{Code: code, Message: msg})
	if err != nil {
		panic(err)
	}
	return f
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// peer writes frames to one socket. Only the connection's frame writer calls it.
type peer struct {
	conn *websocket.Conn
}

func (p *peer) WriteFrame(ctx context.Context, f model.Frame) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := p.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	return websocket.JSON.Send(p.conn, f)
}
