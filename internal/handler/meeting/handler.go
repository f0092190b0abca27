package meeting

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/Kamaljeyaram/Matrix/internal/service/meeting"
	"github.com/Kamaljeyaram/Matrix/pkg/errors"
	"github.com/Kamaljeyaram/Matrix/pkg/httputil"
	"github.com/Kamaljeyaram/Matrix/pkg/metrics"
)

type Handler struct {
	service *meeting.Service
	metrics *metrics.Metrics
}

func NewHandler(service *meeting.Service, m *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: m}
}

type codeRequest struct {
	Code string `json:"code" binding:"required"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

type joinResponse struct {
	MeetingLink string `json:"meeting_link"`
}

// ValidateCode checks a code without consuming it, so a join page can probe
// before committing.
func (h *Handler) ValidateCode(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("meeting code is required", err))
		return
	}

	result, err := h.service.Validate(c.Request.Context(), req.Code)
	if err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, validateResponse{Valid: result.Valid})
}

// JoinMeeting redeems a code. An unknown, used, or expired code gets the
// same rejection; callers cannot probe which codes exist.
func (h *Handler) JoinMeeting(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("meeting code is required", err))
		return
	}

	link, err := h.service.Join(c.Request.Context(), req.Code)
	if err != nil {
		if stderrors.Is(err, meeting.ErrCodeInvalid) {
			if h.metrics != nil {
				h.metrics.MeetingCodesRejected.Inc()
			}
			httputil.RespondWithError(c, errors.NotFound("meeting", err))
			return
		}
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	if h.metrics != nil {
		h.metrics.MeetingCodesRedeemed.Inc()
	}
	httputil.RespondWithSuccess(c, joinResponse{MeetingLink: link})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	meetings := r.Group("/meetings")
	{
		meetings.POST("/validate", h.ValidateCode)
		meetings.POST("/join", h.JoinMeeting)
	}
}
