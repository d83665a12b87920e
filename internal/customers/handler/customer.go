package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"detailbook/internal/customers/service"
	"detailbook/pkg/customertype"
	apperrors "detailbook/pkg/errors"
	httputil "detailbook/pkg/http"
	"detailbook/pkg/logger"
	"detailbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CreateCustomerRequest struct {
	BusinessID string `json:"business_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// RecordCompletionRequest carries an optional completion time; empty means
// now.
type RecordCompletionRequest struct {
	CompletedAt string `json:"completed_at"`
}

type CustomerHandler struct {
	service service.CustomerService
	log     *logger.Logger
}

func NewCustomerHandler(service service.CustomerService, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: service,
		log:     log,
	}
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	view, err := h.service.Create(r.Context(), &model.Customer{
		BusinessID: req.BusinessID,
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
	})
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, view); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	view, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	views, total, err := h.service.ListByBusiness(r.Context(), r.URL.Query().Get("business_id"), limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, views, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *CustomerHandler) Lookup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	view, err := h.service.Lookup(r.Context(), query.Get("business_id"), query.Get("phone"))
	if err != nil {
		h.writeError(w, "Lookup", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "Lookup", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.CustomerUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	view, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *CustomerHandler) Classification(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reference, err := httputil.ExtractTime(r, "reference")
	if err != nil {
		h.writeError(w, "Classification", err)
		return
	}

	result, err := h.service.Classify(r.Context(), ps.ByName("id"), reference)
	if err != nil {
		h.writeError(w, "Classification", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Classification", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CustomerHandler) RecordCompletion(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req RecordCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, "RecordCompletion", apperrors.InvalidInput("Invalid request body"))
		return
	}

	var at time.Time
	if req.CompletedAt != "" {
		parsed, ok := customertype.ParseTime(req.CompletedAt)
		if !ok {
			h.writeError(w, "RecordCompletion", apperrors.InvalidInput("invalid completed_at: "+req.CompletedAt))
			return
		}
		at = parsed
	}

	view, err := h.service.RecordCompletion(r.Context(), ps.ByName("id"), at)
	if err != nil {
		h.writeError(w, "RecordCompletion", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "RecordCompletion", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CustomerHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *CustomerHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/customers", h.Create)
	router.GET("/api/v1/customers", h.List)
	router.GET("/api/v1/customers/lookup", h.Lookup)
	router.GET("/api/v1/customers/id/:id", h.GetByID)
	router.PATCH("/api/v1/customers/id/:id", h.Update)
	router.DELETE("/api/v1/customers/id/:id", h.Delete)
	router.GET("/api/v1/customers/id/:id/classification", h.Classification)
	router.POST("/api/v1/customers/id/:id/completions", h.RecordCompletion)
}
