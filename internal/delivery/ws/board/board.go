package ws_board

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/humanbelnik/pokerboard/internal/model"
	usecase_session "github.com/humanbelnik/pokerboard/internal/usecase/session"
)

const (
	EventView  = "view"
	EventError = "error"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 16
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Command is a client request over the socket. Fields are read per Type.
type Command struct {
	Type  string  `json:"type"`
	Name  string  `json:"name,omitempty"`
	Value int     `json:"value,omitempty"`
	Epic  *string `json:"epic,omitempty"`
	Story *string `json:"story,omitempty"`
	Task  *string `json:"task,omitempty"`
	Text  string  `json:"text,omitempty"`
}

const (
	CommandJoin    = "join"
	CommandVote    = "vote"
	CommandReveal  = "reveal"
	CommandHide    = "hide"
	CommandReset   = "reset"
	CommandContent = "content"
	CommandRemove  = "remove"
	CommandPost    = "post"
)

type Controller struct {
	store      usecase_session.BoardStore
	feed       usecase_session.Feed
	subscriber usecase_session.Subscriber
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

func New(
	store usecase_session.BoardStore,
	feed usecase_session.Feed,
	subscriber usecase_session.Subscriber,
) *Controller {
	return &Controller{
		store:      store,
		feed:       feed,
		subscriber: subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	boards := router.Group("/boards/:code")
	{
		boards.GET("/facilitator/ws", c.serve(usecase_session.RoleFacilitator))
		boards.GET("/participant/ws", c.serve(usecase_session.RoleParticipant))
	}
}

type client struct {
	conn    *websocket.Conn
	send    chan Event
	session *usecase_session.Session
	logger  *slog.Logger
}

func (c *Controller) serve(role usecase_session.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			c.logger.Error("websocket upgrade failed", "error", err)
			return
		}

		// Detached from the request: the socket lives until either pump stops.
		connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx.Request.Context()))
		defer cancel()

		session := usecase_session.New(
			ctx.Param("code"),
			role,
			c.store,
			c.feed,
			c.subscriber,
			usecase_session.WithLogger(c.logger),
		)
		if err := session.Open(connCtx); err != nil {
			c.rejected(conn, err)
			return
		}
		defer session.Close()

		cl := &client{
			conn:    conn,
			send:    make(chan Event, sendBuffer),
			session: session,
			logger:  c.logger,
		}
		cl.push(connCtx, viewEvent(session.View()))

		go func() {
			<-connCtx.Done()
			conn.Close()
		}()
		go cl.writePump(connCtx, cancel)
		go func() {
			if err := session.Run(connCtx, func(v usecase_session.View) {
				cl.push(connCtx, viewEvent(v))
			}); err != nil {
				c.logger.Error("session stopped", "session_id", session.ID, "error", err)
			}
			cancel()
		}()

		cl.readPump(connCtx)
	}
}

func (c *Controller) rejected(conn *websocket.Conn, err error) {
	defer conn.Close()

	data, mErr := sonic.Marshal(errorEvent(err))
	if mErr != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if wErr := conn.WriteMessage(websocket.TextMessage, data); wErr != nil {
		return
	}
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session rejected"),
		time.Now().Add(writeWait),
	)
}

func (cl *client) push(ctx context.Context, e Event) {
	select {
	case cl.send <- e:
	case <-ctx.Done():
	}
}

func (cl *client) readPump(ctx context.Context) {
	cl.conn.SetReadLimit(maxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cl.logger.Warn("websocket read failed", "session_id", cl.session.ID, "error", err)
			}
			return
		}

		var cmd Command
		if err := sonic.Unmarshal(data, &cmd); err != nil {
			cl.push(ctx, errorEvent(usecase_session.ErrValidation))
			continue
		}
		cl.dispatch(ctx, cmd)
	}
}

func (cl *client) writePump(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
	}()

	for {
		select {
		case e := <-cl.send:
			data, err := sonic.Marshal(e)
			if err != nil {
				cl.logger.Error("failed to encode event", "type", e.Type, "error", err)
				continue
			}
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Reveal, hide and join change what this viewer sees without a store
// snapshot to carry it, so their view is pushed right away.
func (cl *client) dispatch(ctx context.Context, cmd Command) {
	var (
		err     error
		refresh bool
	)

	switch cmd.Type {
	case CommandJoin:
		err = cl.session.Join(ctx, cmd.Name)
		refresh = true
	case CommandVote:
		err = cl.session.Vote(ctx, model.Vote(cmd.Value))
	case CommandReveal:
		err = cl.session.Reveal()
		refresh = true
	case CommandHide:
		err = cl.session.Hide()
		refresh = true
	case CommandReset:
		err = cl.session.Reset(ctx)
	case CommandContent:
		err = cl.session.UpdateContent(ctx, model.ContentPatch{
			Epic:  cmd.Epic,
			Story: cmd.Story,
			Task:  cmd.Task,
		})
	case CommandRemove:
		err = cl.session.RemoveParticipant(ctx, cmd.Name)
	case CommandPost:
		err = cl.session.Post(ctx, cmd.Text)
	default:
		err = usecase_session.ErrValidation
	}

	if err != nil {
		if errors.Is(err, usecase_session.ErrTransport) {
			cl.logger.Error("command failed", "session_id", cl.session.ID, "type", cmd.Type, "error", err)
		}
		cl.push(ctx, errorEvent(err))
		return
	}
	if refresh {
		cl.push(ctx, viewEvent(cl.session.View()))
	}
}

func viewEvent(v usecase_session.View) Event {
	return Event{Type: EventView, Payload: v}
}

func errorEvent(err error) Event {
	p := ErrorPayload{Code: "transport", Message: "transport error"}
	switch {
	case errors.Is(err, usecase_session.ErrNotFound):
		p = ErrorPayload{Code: "not_found", Message: err.Error()}
	case errors.Is(err, usecase_session.ErrValidation):
		p = ErrorPayload{Code: "validation", Message: err.Error()}
	case errors.Is(err, usecase_session.ErrForbidden):
		p = ErrorPayload{Code: "forbidden", Message: err.Error()}
	case errors.Is(err, usecase_session.ErrNotOpen):
		p = ErrorPayload{Code: "not_open", Message: err.Error()}
	}
	return Event{Type: EventError, Payload: p}
}
