package hostbridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
)

const readTimeout = 90 * time.Second

type session struct {
	id      string
	srv     *Server
	conn    *websocket.Conn
	limiter *rate.Limiter
	send    chan Frame
	done    chan struct{}
	once    sync.Once
}

func newSession(srv *Server, conn *websocket.Conn) *session {
	return &session{
		id:      uuid.NewString(),
		srv:     srv,
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(srv.cfg.RateLimit), srv.cfg.RateBurst),
		send:    make(chan Frame, srv.cfg.SendBuffer),
		done:    make(chan struct{}),
	}
}

// enqueue reports false when the session is closed or its queue is full
func (ss *session) enqueue(f Frame) bool {
	select {
	case <-ss.done:
		return false
	default:
	}
	select {
	case ss.send <- f:
		return true
	default:
		return false
	}
}

func (ss *session) close() {
	ss.once.Do(func() {
		close(ss.done)
		_ = ss.conn.Close()
		ss.srv.remove(ss)
	})
}

func (ss *session) reply(frameType, id string, payload any) {
	f, err := NewFrame(frameType, id, payload)
	if err != nil {
		return
	}
	ss.enqueue(f)
}

func (ss *session) replyError(id string, err error) {
	ss.reply(FrameError, id, ErrorPayload{Message: err.Error(), Class: errors.Classify(err).String()})
}

func (ss *session) readLoop() {
	defer ss.srv.wg.Done()
	defer ss.close()

	_ = ss.conn.SetReadDeadline(time.Now().Add(readTimeout))
	ss.conn.SetPongHandler(func(string) error {
		return ss.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, data, err := ss.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ss.srv.logger.Debug("Session read failed", "session", ss.id, "error", err)
			}
			return
		}
		_ = ss.conn.SetReadDeadline(time.Now().Add(readTimeout))

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			ss.srv.metrics.RecordBridgeFrame("in", labelMalformed)
			ss.replyError("", errors.WrapInvalid(err, "Session", "readLoop", "decode frame"))
			continue
		}
		if !ss.limiter.Allow() {
			ss.srv.metrics.RecordBridgeFrame("in", labelRateLimited)
			ss.replyError(f.ID, errors.WrapTransient(errors.ErrRateLimited, "Session", "readLoop", "rate limit"))
			continue
		}
		ss.srv.metrics.RecordBridgeFrame("in", inboundLabel(f.Type))

		ctx, cancel := context.WithTimeout(context.Background(), ss.srv.cfg.CommandTimeout)
		err = ss.srv.dispatch(ctx, f)
		cancel()
		if err != nil {
			ss.srv.logger.Debug("Frame failed", "session", ss.id, "type", f.Type, "error", err)
			ss.replyError(f.ID, err)
			continue
		}
		if f.ID != "" {
			ss.reply(FrameAck, f.ID, nil)
		}
	}
}

func (ss *session) writeLoop() {
	defer ss.srv.wg.Done()
	defer ss.close()

	ping := time.NewTicker(ss.srv.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ss.done:
			return
		case f := <-ss.send:
			_ = ss.conn.SetWriteDeadline(time.Now().Add(ss.srv.cfg.WriteTimeout))
			if err := ss.conn.WriteJSON(f); err != nil {
				return
			}
			ss.srv.metrics.RecordBridgeFrame("out", f.Type)
		case <-ping.C:
			_ = ss.conn.SetWriteDeadline(time.Now().Add(ss.srv.cfg.WriteTimeout))
			if err := ss.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
