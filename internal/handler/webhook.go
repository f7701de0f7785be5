package handler

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-bot/internal/chat"
)

// WebhookHandler receives updates pushed by Telegram.
type WebhookHandler struct {
	secret   string
	dispatch func(chat.Event)
}

// NewWebhookHandler returns a handler accepting updates only on the path
// carrying secret.
func NewWebhookHandler(secret string, dispatch func(chat.Event)) *WebhookHandler {
	return &WebhookHandler{secret: secret, dispatch: dispatch}
}

// Receive handles POST /telegram/:secret.  A wrong secret looks like an
// unknown route.  Accepted updates are queued and acknowledged with 200
// right away; updates the bot does not understand are dropped.
func (h *WebhookHandler) Receive(c echo.Context) error {
	if subtle.ConstantTimeCompare([]byte(c.Param("secret")), []byte(h.secret)) != 1 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	var u tgbotapi.Update
	if err := json.NewDecoder(c.Request().Body).Decode(&u); err != nil {
		log.Printf("webhook: bad update body: %v", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid update"})
	}
	if ev, ok := chat.EventFromUpdate(u); ok {
		h.dispatch(ev)
	}
	return c.NoContent(http.StatusOK)
}
