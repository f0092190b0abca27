package clinician

import (
	stderrors "errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/repository"
	"github.com/Kamaljeyaram/Matrix/pkg/errors"
	"github.com/Kamaljeyaram/Matrix/pkg/httputil"
)

const directoryCacheKey = "clinicians:all"

// Handler serves the clinician directory. The list changes rarely and sits
// on the booking page's critical path, so it is cached in-process.
type Handler struct {
	repo  repository.ClinicianRepository
	cache *gocache.Cache
}

func NewHandler(repo repository.ClinicianRepository) *Handler {
	return &Handler{
		repo:  repo,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func (h *Handler) CreateClinician(c *gin.Context) {
	var req model.CreateClinicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	clinician := &model.Clinician{
		ID:             uuid.New(),
		Name:           req.Name,
		Specialty:      req.Specialty,
		Email:          req.Email,
		TelegramChatID: req.TelegramChatID,
	}

	if err := h.repo.Create(c.Request.Context(), clinician); err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	h.cache.Delete(directoryCacheKey)
	httputil.RespondWithCreated(c, clinician)
}

func (h *Handler) GetClinician(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid clinician ID", err))
		return
	}

	clinician, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			httputil.RespondWithError(c, errors.NotFound("clinician", err))
			return
		}
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, clinician)
}

func (h *Handler) ListClinicians(c *gin.Context) {
	if cached, ok := h.cache.Get(directoryCacheKey); ok {
		httputil.RespondWithSuccess(c, cached)
		return
	}

	clinicians, err := h.repo.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	h.cache.Set(directoryCacheKey, clinicians, gocache.DefaultExpiration)
	httputil.RespondWithSuccess(c, clinicians)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinicians := r.Group("/clinicians")
	{
		clinicians.POST("", h.CreateClinician)
		clinicians.GET("", h.ListClinicians)
		clinicians.GET("/:id", h.GetClinician)
	}
}
