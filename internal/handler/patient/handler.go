package patient

import (
	stderrors "errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/repository"
	"github.com/Kamaljeyaram/Matrix/pkg/errors"
	"github.com/Kamaljeyaram/Matrix/pkg/httputil"
)

type Handler struct {
	repo repository.PatientRepository
}

func NewHandler(repo repository.PatientRepository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	patient := &model.Patient{
		ID:             uuid.New(),
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		TelegramChatID: req.TelegramChatID,
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid date of birth", err))
			return
		}
		patient.DateOfBirth = &dob
	}

	if err := h.repo.Create(c.Request.Context(), patient); err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithCreated(c, patient)
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid patient ID", err))
		return
	}

	patient, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			httputil.RespondWithError(c, errors.NotFound("patient", err))
			return
		}
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, patient)
}

func (h *Handler) ListPatients(c *gin.Context) {
	patients, err := h.repo.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.CreatePatient)
		patients.GET("", h.ListPatients)
		patients.GET("/:id", h.GetPatient)
	}
}
