// Package notify carries one-shot notifications (success and error toasts)
// across a redirect.
package notify

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
)

const (
	cookieName = "admin_flash"
	contextKey = "flash"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Message is a notification shown once.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Success queues a success notification for the next page.
func Success(c echo.Context, text string) {
	set(c, Message{Level: LevelSuccess, Text: text})
}

// Error queues an error notification for the next page.
func Error(c echo.Context, text string) {
	set(c, Message{Level: LevelError, Text: text})
}

// Failure queues the classified message for err. When fallback is set it
// replaces the generic message for non-API errors.
func Failure(c echo.Context, err error, fallback string) {
	text := apiclient.UserMessage(err)
	if text == "Something went wrong" && fallback != "" {
		text = fallback
	}
	Error(c, text)
}

func set(c echo.Context, m Message) {
	c.Set(contextKey, &m)

	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// Pop returns the pending notification, if any, and clears it.
func Pop(c echo.Context) *Message {
	if m, ok := c.Get(contextKey).(*Message); ok && m != nil {
		c.Set(contextKey, nil)
		drop(c)
		return m
	}

	cookie, err := c.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	drop(c)

	b, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var m Message
	if err := json.Unmarshal(b, &m); err != nil || m.Text == "" {
		return nil
	}
	return &m
}

func drop(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
