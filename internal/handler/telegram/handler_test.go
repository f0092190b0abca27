package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamaljeyaram/Matrix/internal/telegram"
)

type stubBot struct {
	getMeErr error
	sendErr  error
	sentTo   string
	sentText string
	webhook  string
}

func (s *stubBot) GetMe(context.Context) (*telegram.BotInfo, error) {
	if s.getMeErr != nil {
		return nil, s.getMeErr
	}
	return &telegram.BotInfo{ID: 7, Username: "healthstream_bot"}, nil
}

func (s *stubBot) SendMessage(_ context.Context, chatID, text string) (*telegram.Message, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	s.sentTo = chatID
	s.sentText = text
	return &telegram.Message{MessageID: 1}, nil
}

func (s *stubBot) SetWebhook(_ context.Context, url string) error {
	s.webhook = url
	return nil
}

func setup(bot *stubBot) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(bot).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetBotInfo(t *testing.T) {
	bot := &stubBot{}
	r := setup(bot)

	w := doJSON(r, http.MethodGet, "/api/v1/telegram/bot", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthstream_bot")
}

func TestGetBotInfoUnreachable(t *testing.T) {
	bot := &stubBot{getMeErr: telegram.ErrInvalidToken}
	r := setup(bot)

	w := doJSON(r, http.MethodGet, "/api/v1/telegram/bot", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSendTestMessage(t *testing.T) {
	bot := &stubBot{}
	r := setup(bot)

	w := doJSON(r, http.MethodPost, "/api/v1/telegram/test", gin.H{
		"chat_id": "1679861448",
		"message": "ping",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1679861448", bot.sentTo)
	assert.Equal(t, "ping", bot.sentText)
}

func TestSendTestMessageChatNotFound(t *testing.T) {
	bot := &stubBot{sendErr: telegram.ErrChatNotFound}
	r := setup(bot)

	w := doJSON(r, http.MethodPost, "/api/v1/telegram/test", gin.H{
		"chat_id": "999",
		"message": "ping",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendTestMessageMissingFields(t *testing.T) {
	r := setup(&stubBot{})

	w := doJSON(r, http.MethodPost, "/api/v1/telegram/test", gin.H{"chat_id": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterWebhook(t *testing.T) {
	bot := &stubBot{}
	r := setup(bot)

	w := doJSON(r, http.MethodPost, "/api/v1/telegram/webhook", gin.H{
		"url": "https://api.example.com/telegram/updates",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://api.example.com/telegram/updates", bot.webhook)
}

func TestRegisterWebhookRejectsBadURL(t *testing.T) {
	r := setup(&stubBot{})

	w := doJSON(r, http.MethodPost, "/api/v1/telegram/webhook", gin.H{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
