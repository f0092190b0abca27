package booking

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/repository"
	"github.com/Kamaljeyaram/Matrix/internal/service/booking"
	"github.com/Kamaljeyaram/Matrix/pkg/errors"
	"github.com/Kamaljeyaram/Matrix/pkg/httputil"
)

type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req booking.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	result, err := h.service.Book(c.Request.Context(), &req)
	if err != nil {
		// Only the caller's mistakes come back as 4xx; a failed transaction
		// or unreachable database is a 500.
		var vErrs validator.ValidationErrors
		switch {
		case isNotFound(err):
			httputil.RespondWithError(c, errors.NotFound("patient or clinician", err))
		case stderrors.As(err, &vErrs):
			httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		default:
			httputil.RespondWithError(c, errors.Internal(err))
		}
		return
	}

	httputil.RespondWithCreated(c, result)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return
	}

	apt, err := h.service.GetAppointment(c.Request.Context(), id)
	if err != nil {
		if isNotFound(err) {
			httputil.RespondWithError(c, errors.NotFound("appointment", err))
			return
		}
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	filters := &model.AppointmentFilters{}

	if id := c.Query("patient_id"); id != "" {
		patientID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid patient ID", err))
			return
		}
		filters.PatientID = &patientID
	}
	if id := c.Query("clinician_id"); id != "" {
		clinicianID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid clinician ID", err))
			return
		}
		filters.ClinicianID = &clinicianID
	}
	if status := c.Query("status"); status != "" {
		s := model.AppointmentStatus(status)
		filters.Status = &s
	}

	appointments, err := h.service.ListAppointments(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return
	}

	if err := h.service.CancelAppointment(c.Request.Context(), id); err != nil {
		if isNotFound(err) {
			httputil.RespondWithError(c, errors.NotFound("appointment", err))
			return
		}
		httputil.RespondWithError(c, errors.Conflict(err.Error(), err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"cancelled": true})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.DELETE("/:id", h.CancelAppointment)
	}
}

func isNotFound(err error) bool {
	return stderrors.Is(err, repository.ErrNotFound)
}
