package telegram

import (
	"context"
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/Kamaljeyaram/Matrix/internal/telegram"
	"github.com/Kamaljeyaram/Matrix/pkg/errors"
	"github.com/Kamaljeyaram/Matrix/pkg/httputil"
)

// BotAPI is the slice of the Telegram client the diagnostics endpoints use.
type BotAPI interface {
	GetMe(ctx context.Context) (*telegram.BotInfo, error)
	SendMessage(ctx context.Context, chatID, text string) (*telegram.Message, error)
	SetWebhook(ctx context.Context, url string) error
}

// Handler exposes bot connectivity diagnostics so operators can verify the
// token and chat wiring without booking anything.
type Handler struct {
	bot BotAPI
}

func NewHandler(bot BotAPI) *Handler {
	return &Handler{bot: bot}
}

func (h *Handler) GetBotInfo(c *gin.Context) {
	info, err := h.bot.GetMe(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, errors.Unavailable("telegram bot unreachable", err))
		return
	}
	httputil.RespondWithSuccess(c, info)
}

type testMessageRequest struct {
	ChatID  string `json:"chat_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

func (h *Handler) SendTestMessage(c *gin.Context) {
	var req testMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("chat_id and message are required", err))
		return
	}

	msg, err := h.bot.SendMessage(c.Request.Context(), req.ChatID, req.Message)
	if err != nil {
		switch {
		case stderrors.Is(err, telegram.ErrChatNotFound):
			httputil.RespondWithError(c, errors.NotFound("chat", err))
		case stderrors.Is(err, telegram.ErrBlockedByUser):
			httputil.RespondWithError(c, errors.Conflict("recipient blocked the bot", err))
		default:
			httputil.RespondWithError(c, errors.Unavailable("failed to send test message", err))
		}
		return
	}

	httputil.RespondWithSuccess(c, msg)
}

type webhookRequest struct {
	URL string `json:"url" binding:"required,url"`
}

func (h *Handler) RegisterWebhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("a valid url is required", err))
		return
	}

	if err := h.bot.SetWebhook(c.Request.Context(), req.URL); err != nil {
		httputil.RespondWithError(c, errors.Unavailable("failed to register webhook", err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"registered": true})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	tg := r.Group("/telegram")
	{
		tg.GET("/bot", h.GetBotInfo)
		tg.POST("/test", h.SendTestMessage)
		tg.POST("/webhook", h.RegisterWebhook)
	}
}
