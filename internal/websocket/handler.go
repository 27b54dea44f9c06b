package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"virtual-doctor-be/internal/dto"
	"virtual-doctor-be/internal/pkg/logger"
	"virtual-doctor-be/internal/pkg/serverutils"
	"virtual-doctor-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const logModule = "ChatSocket"

// ErrorFrame is written back when a frame cannot be answered.
type ErrorFrame struct {
	Error     string `json:"error"`
	Code      int    `json:"code"`
	SessionId string `json:"sessionId,omitempty"`
}

// Handler runs consultation turns over a websocket. Frames on one connection
// are processed one after another.
type Handler struct {
	service service.IMessageService
	logger  logger.ILogger
}

func NewHandler(service service.IMessageService, logger logger.ILogger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Use("/ws", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	r.Get("/ws/message", websocket.New(h.serve))
}

func (h *Handler) serve(conn *websocket.Conn) {
	userId, _ := conn.Locals("user_id").(string)
	h.logger.Info(logModule, "Connection opened", map[string]interface{}{"remote": conn.RemoteAddr().String()})
	h.run(conn, userId)
}

type frameConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
}

// run answers frames in arrival order. Reading continues while a turn is in
// flight so a disconnect cancels that turn and stops its LLM retries.
func (h *Handler) run(conn frameConn, userId string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := make(chan []byte)
	go func() {
		defer close(frames)
		defer cancel()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Warn(logModule, "Connection closed unexpectedly", map[string]interface{}{"error": err.Error()})
				}
				return
			}
			select {
			case frames <- raw:
			case <-ctx.Done():
				return
			}
		}
	}()

	for raw := range frames {
		if err := conn.WriteJSON(h.HandleFrame(ctx, userId, raw)); err != nil {
			h.logger.Warn(logModule, "Failed to write frame", map[string]interface{}{"error": err.Error()})
			return
		}
	}
}

// HandleFrame runs one turn for a raw {sessionId,userId,text} frame and returns
// either a *dto.SendMessageResponse or an ErrorFrame.
func (h *Handler) HandleFrame(ctx context.Context, userId string, raw []byte) interface{} {
	var req dto.SendMessageRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return ErrorFrame{Error: "malformed frame", Code: fiber.StatusBadRequest}
	}
	if userId != "" {
		req.UserId = userId
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		code, msg := serverutils.StatusFor(err)
		return ErrorFrame{Error: msg, Code: code, SessionId: req.SessionId}
	}

	res, err := h.service.SendMessage(ctx, &req)
	if err != nil {
		code, msg := serverutils.StatusFor(err)
		if code >= fiber.StatusInternalServerError {
			h.logger.Error(logModule, "Turn failed", map[string]interface{}{
				"session_id": req.SessionId,
				"error":      fmt.Sprint(err),
			})
		}
		return ErrorFrame{Error: msg, Code: code, SessionId: req.SessionId}
	}
	return res
}
