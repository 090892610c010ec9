package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/MeetingRoom/internal/app/orch"
	"github.com/dkeye/MeetingRoom/internal/core"
	"github.com/dkeye/MeetingRoom/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type Options struct {
	ReadLimit    int64
	PingPeriod   time.Duration
	JoinLimit    int
	JoinInterval time.Duration
}

type SignalWSController struct {
	Orch *orch.Orchestrator

	ctx     context.Context
	opts    Options
	limiter *RoomRateLimiter
}

// NewSignalWSController builds a controller whose rooms live as long as ctx.
func NewSignalWSController(ctx context.Context, o *orch.Orchestrator, opts Options) *SignalWSController {
	if opts.JoinLimit <= 0 {
		opts.JoinLimit = 5
	}
	if opts.JoinInterval <= 0 {
		opts.JoinInterval = 10 * time.Second
	}
	return &SignalWSController{
		Orch:    o,
		ctx:     ctx,
		opts:    opts,
		limiter: NewRoomRateLimiter(opts.JoinLimit, opts.JoinInterval),
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (ctl *SignalWSController) BroadcastFrom(sid core.SessionID, v any) {
	if b, ok := marshal(v); ok {
		ctl.Orch.OnFrame(sid, b)
	}
}

func (ctl *SignalWSController) BroadcastRoom(roomID domain.RoomID, v any) {
	if b, ok := marshal(v); ok {
		ctl.Orch.BroadcastRoom(roomID, b)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if ctl.opts.ReadLimit > 0 {
		ws.SetReadLimit(ctl.opts.ReadLimit)
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	user, _ := ctl.Orch.Registry.GetOrCreateUser(sid)
	sess := core.NewMemberSession(domain.NewMember(user)).UpdateSignal(conn)
	ctx, cancel := context.WithCancel(ctl.ctx)
	ctl.Orch.Registry.BindSignal(sid, sess, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
