package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/logger"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/middlewares"
)

const (
	pingInterval = 10 * time.Minute

	defaultPage  int64 = 1
	defaultLimit int64 = 20
)

// ChatWebsocketHandler binds one websocket connection to a session and
// dispatches its action envelopes onto the use cases
type ChatWebsocketHandler struct {
	sessions      *SessionManager
	messageUC     *MessageUseCase
	roomUC        *RoomUseCase
	notifications *NotificationUseCase
	router        *FanoutRouter
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	sessions *SessionManager,
	messageUC *MessageUseCase,
	roomUC *RoomUseCase,
	notifications *NotificationUseCase,
	router *FanoutRouter,
) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		sessions:      sessions,
		messageUC:     messageUC,
		roomUC:        roomUC,
		notifications: notifications,
		router:        router,
	}
}

// HandleConnection is the entry point for one websocket connection. The
// connection starts unauthenticated; a token carried on the upgrade
// request authenticates it immediately, otherwise the client sends an
// authenticate envelope first.
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	// fan-out pushes arrive from other goroutines, a connection handles
	// one concurrent write at a time
	var writeMu sync.Mutex
	send := func(resp domain.WSResponse) error {
		b, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, b)
	}

	session := h.sessions.NewSession(send)
	ticker := time.NewTicker(pingInterval)
	ctxClose, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		h.sessions.Close(session)
		logger.Log.Info("websocket close", zap.String("handle", session.ID()))
		conn.Close()
		cancel()
	}()

	// fiber handles close/ping/pong frames itself, the handlers below only
	// surface them into the log
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("websocket closed:", conn.RemoteAddr())
		return nil
	})
	conn.SetPongHandler(func(appData string) error {
		logger.Log.Debug("received pong", zap.String("handle", session.ID()))
		return nil
	})
	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	// a token on the upgrade request authenticates without a first envelope
	if token, ok := conn.Locals(middlewares.AuthToken).(string); ok && token != "" {
		if userID, err := h.sessions.Authenticate(ctx, session, token); err != nil {
			logger.Log.Warn("upgrade token rejected", zap.String("handle", session.ID()))
		} else {
			logger.Log.Info("authenticated on upgrade", zap.String("userID", userID))
		}
	}

	go func() {
		for {
			select {
			case <-ticker.C:
				writeMu.Lock()
				err := conn.WriteMessage(websocket.PingMessage, []byte("ping"))
				writeMu.Unlock()
				if err != nil {
					logger.Log.Errorf("ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		h.execWebsocketAction(ctx, session, mt, message)
	}
}

func (h *ChatWebsocketHandler) execWebsocketAction(ctx context.Context, session *ConnectionSession, mt int, msg []byte) {
	switch mt {
	case websocket.TextMessage:
		h.textMessageAction(ctx, session, msg)
	default:
		h.sendError(session, "unsupported message type")
	}
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, session *ConnectionSession, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		h.sendError(session, "malformed request")
		return
	}

	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}

	// authenticate and logout manage the session itself, everything else
	// requires an established identity
	switch req.Action {
	case string(domain.Authenticate):
		userID, err := h.sessions.Authenticate(ctx, session, req.Token)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["user_id"] = userID
		}
		h.finish(session, req, resp)
		return

	case string(domain.Logout):
		// ack while the session can still write, then close
		resp.Success = true
		h.finish(session, req, resp)
		h.sessions.Close(session)
		return
	}

	userID, err := session.RequireAuth()
	if err != nil {
		resp.Error = err.Error()
		h.finish(session, req, resp)
		return
	}

	switch req.Action {
	case string(domain.SendDirect):
		m, err := h.messageUC.SendDirect(ctx, userID, req.RecipientID, req.Content, domain.MessageType(req.Type), req.Attachment)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["message"] = m
		}

	case string(domain.SendRoom):
		m, err := h.messageUC.SendRoom(ctx, userID, req.RoomID, req.Content, domain.MessageType(req.Type), req.Attachment)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["message"] = m
		}

	case string(domain.EditMessage):
		m, err := h.messageUC.Edit(ctx, userID, req.MessageID, req.Content)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["message"] = m
		}

	case string(domain.DeleteMessage):
		m, err := h.messageUC.Delete(ctx, userID, req.MessageID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["message"] = m
		}

	case string(domain.ReactMessage):
		m, err := h.messageUC.React(ctx, userID, req.MessageID, req.Emoji)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["message"] = m
		}

	case string(domain.ReadMessage):
		m, err := h.messageUC.MarkRead(ctx, userID, req.MessageID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["message"] = m
		}

	case string(domain.Typing):
		if req.RoomID != "" {
			h.router.TypingRoom(ctx, userID, req.RoomID, req.IsTyping)
		} else {
			h.router.Typing(ctx, userID, req.RecipientID, req.IsTyping)
		}
		resp.Success = true

	case string(domain.History):
		page, limit := normalizePage(req.Page, req.Limit)
		var msgs []domain.Message
		var err error
		if req.RoomID != "" {
			msgs, err = h.messageUC.FetchRoom(ctx, userID, req.RoomID, page, limit)
		} else {
			msgs, err = h.messageUC.FetchDirect(ctx, userID, req.RecipientID, page, limit)
		}
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["messages"] = msgs
		}

	case string(domain.CreateRoom):
		room, err := h.roomUC.Create(ctx, userID, req.RoomName, req.Description, req.Members)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["room"] = room
			session.JoinRoom(room.ID)
		}

	case string(domain.AddMembers):
		room, err := h.roomUC.AddMembers(ctx, userID, req.RoomID, req.Members)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["room"] = room
		}

	case string(domain.RemoveMember):
		if len(req.Members) == 0 {
			resp.Error = "no member given"
			break
		}
		room, err := h.roomUC.RemoveMember(ctx, userID, req.RoomID, req.Members[0])
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["room"] = room
		}

	case string(domain.LeaveRoom):
		room, err := h.roomUC.Leave(ctx, userID, req.RoomID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["room"] = room
			session.LeaveRoom(req.RoomID)
		}

	case string(domain.GetNotifications):
		page, limit := normalizePage(req.Page, req.Limit)
		notifications, unread, err := h.notifications.List(ctx, userID, page, limit)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["notifications"] = notifications
			resp.Payload["unread_count"] = unread
		}

	case string(domain.ReadNotification):
		n, err := h.notifications.MarkRead(ctx, userID, req.NotificationID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["notification"] = n
		}

	case string(domain.ReadAllNotifications):
		if err := h.notifications.MarkAllRead(ctx, userID); err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	case string(domain.DeleteNotification):
		if err := h.notifications.Delete(ctx, userID, req.NotificationID); err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	default:
		resp.Error = "unknown action"
	}

	h.finish(session, req, resp)
}

func (h *ChatWebsocketHandler) finish(session *ConnectionSession, req domain.WSRequest, resp domain.WSResponse) {
	if resp.Error != "" {
		logger.Log.Error("websocket action failed",
			zap.String("handle", session.ID()),
			zap.String("action", req.Action),
			zap.String("err", resp.Error))
	}
	if err := session.Push(resp); err != nil {
		logger.Log.Errorf("write response error:", err)
	}
}

func (h *ChatWebsocketHandler) sendError(session *ConnectionSession, errorMsg string) {
	resp := domain.WSResponse{
		Action:  "error",
		Success: false,
		Error:   errorMsg,
	}
	if err := session.Push(resp); err != nil {
		logger.Log.Errorf("write response error:", err)
	}
}

func normalizePage(page, limit int64) (int64, int64) {
	if page < defaultPage {
		page = defaultPage
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return page, limit
}
