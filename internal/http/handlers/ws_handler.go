package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-orders/internal/http/middleware"
	"github.com/ignatzorin/freelance-orders/internal/http/response"
	"github.com/ignatzorin/freelance-orders/internal/logger"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/ws"
)

// WSHandler подключает клиентов к хабу уведомлений.
type WSHandler struct {
	hub      *ws.Hub
	tokens   middleware.TokenParser
	upgrader websocket.Upgrader
}

// NewWSHandler создаёт хэндлер. Кросс-доменные подключения принимаются
// только от origins из allowedOrigins.
func NewWSHandler(hub *ws.Hub, tokens middleware.TokenParser, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker пропускает клиентов без Origin, тот же хост и origins из списка.
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}
		parsed, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(parsed.Host, r.Host)
	}
}

// Handle обслуживает GET /api/ws?token=... Браузер не умеет слать заголовок
// Authorization при апгрейде, поэтому токен передаётся в query.
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}
	actor, err := h.tokens.ParseAccess(rawToken)
	if err != nil {
		response.Error(c, apperror.New(apperror.ErrCodeUnauthorized, "токен невалиден"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту.
		logger.Log.WithFields(logrus.Fields{
			"user_id": actor.UserID,
			"error":   err.Error(),
		}).Warn("ws: не удалось установить соединение")
		return
	}

	client := ws.NewClient(conn, h.hub, actor.UserID)
	h.hub.Register(client)
	client.Run()
}
