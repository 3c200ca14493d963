// Package transport exposes the redaction session over WebSocket. Clients
// send binary PCM16 frames; every released chunk comes back as a JSON text
// message followed by a binary message with the audio.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lexiqai/redaction-gateway/internal/audio"
	"github.com/lexiqai/redaction-gateway/internal/detect"
	"github.com/lexiqai/redaction-gateway/internal/observability"
	"github.com/lexiqai/redaction-gateway/internal/session"
	"github.com/lexiqai/redaction-gateway/internal/stt"
)

const (
	// CorrelationHeader carries a caller-supplied correlation ID
	CorrelationHeader = "X-Correlation-ID"

	writeTimeout = 10 * time.Second
	closeTimeout = time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks belong to the fronting proxy
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

var errPanic = errors.New("panic in session")

// HandleRedactWS is the entry point for streaming redaction connections
func HandleRedactWS(cfg session.Config, transcriber stt.Transcriber, detector detect.Detector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Upgrade writes the HTTP error response itself on failure
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger := observability.GetLogger()
			logger.Warn().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}
		defer conn.Close()

		sessionID := uuid.New().String()
		logger := observability.WithSession(sessionID, r.Header.Get(CorrelationHeader))

		sess, err := session.New(sessionID, cfg, transcriber, detector, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create session")
			closeInternal(conn)
			return
		}
		defer sess.Close()

		logger.Info().
			Str("remote_addr", r.RemoteAddr).
			Msg("Redaction session started")

		err = serve(r.Context(), conn, sess, cfg.SampleRate, logger)
		if err != nil {
			errType, component := classify(err)
			sess.Metrics().RecordError(errType, component)
			logger.Error().
				Err(err).
				Str("error_type", errType).
				Int64("emitted_samples", sess.EmittedSamples()).
				Msg("Redaction session failed")
			closeInternal(conn)
			return
		}

		logger.Info().
			Int64("emitted_samples", sess.EmittedSamples()).
			Msg("Redaction session ended")
	}
}

// serve runs the read, process, write loop until the client disconnects
// (nil) or an internal fault occurs
func serve(ctx context.Context, conn *websocket.Conn, sess *session.Session, sampleRate int, logger zerolog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	metrics := sess.Metrics()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return nil
		}

		if msgType != websocket.BinaryMessage {
			logger.Debug().Int("message_type", msgType).Msg("Ignoring non-binary message")
			continue
		}
		metrics.RecordAudioBytes("in", int64(len(payload)))

		frame, err := audio.NewFrame(payload, sampleRate)
		if err != nil {
			return err
		}

		emissions, err := sess.Push(ctx, frame)
		if err != nil {
			return err
		}

		for _, e := range emissions {
			if err := send(conn, e); err != nil {
				if isDisconnect(err) {
					logger.Info().Err(err).Msg("Client went away during send")
					return nil
				}
				return fmt.Errorf("failed to send chunk at sample %d: %w", e.Record.ChunkStartSample, err)
			}
			metrics.RecordAudioBytes("out", int64(len(e.Audio)))
		}
	}
}

func send(conn *websocket.Conn, e session.Emission) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := conn.WriteJSON(e.Record); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, e.Audio)
}

// closeInternal sends close code 1011. Failures are ignored since the
// connection is already being torn down.
func closeInternal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "internal error")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
}

func isDisconnect(err error) bool {
	return errors.Is(err, websocket.ErrCloseSent) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

// classify maps a session fault to error metric labels
func classify(err error) (errType, component string) {
	switch {
	case errors.Is(err, audio.ErrInvalidFrame):
		return "invalid_frame", "transport"
	case errors.Is(err, audio.ErrHoldbackOverflow):
		return "holdback_overflow", "session"
	case errors.Is(err, stt.ErrCircuitOpen):
		return "circuit_open", "stt"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout", "stt"
	case errors.Is(err, errPanic):
		return "panic", "session"
	default:
		return "internal", "session"
	}
}
