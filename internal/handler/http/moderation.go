package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/freshmart/review-service/internal/repository"
	"github.com/freshmart/review-service/internal/service"
	"github.com/freshmart/review-service/pkg/httputil"
	"github.com/freshmart/review-service/pkg/pagination"
	"github.com/freshmart/review-service/pkg/validator"
)

// ModerationHandler handles the admin moderation endpoints.
type ModerationHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewModerationHandler creates a new moderation HTTP handler.
func NewModerationHandler(svc *service.ReviewService, logger *slog.Logger) *ModerationHandler {
	return &ModerationHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// UpdateStatusRequest is the JSON request body for a moderation decision.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Reason string `json:"reason"`
}

// BulkModerateRequest is the JSON request body for bulk moderation.
type BulkModerateRequest struct {
	ReviewIDs []int64 `json:"review_ids" validate:"required,min=1,max=100,dive,gt=0"`
	Status    string  `json:"status" validate:"required,oneof=approved rejected"`
	Reason    string  `json:"reason"`
}

// --- Handlers ---

// ListPending handles GET /api/v1/admin/reviews/pending
func (h *ModerationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.PendingReviewFilter{
		SpamLevel: r.URL.Query().Get("spam_level"),
		Limit:     params.Limit,
		Offset:    params.Offset,
	}

	if v := r.URL.Query().Get("product_id"); v != "" {
		productID, ok := httputil.ParseInt64(w, v)
		if !ok {
			return
		}
		filter.ProductID = productID
	}

	if v := r.URL.Query().Get("date_from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "date_from must be RFC3339 or YYYY-MM-DD"},
			})
			return
		}
		filter.DateFrom = &t
	}

	if v := r.URL.Query().Get("date_to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "date_to must be RFC3339 or YYYY-MM-DD"},
			})
			return
		}
		// A date-only upper bound means "through the end of that day".
		if len(v) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filter.DateTo = &t
	}

	reviews, total, err := h.service.ListPendingReviews(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(reviews, total, params))
}

// UpdateStatus handles PUT /api/v1/admin/reviews/{id}/status
func (h *ModerationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseInt64(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	moderator, ok := moderatorFromRequest(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.ModerateReview(r.Context(), service.ModerateInput{
		ReviewID:        id,
		Status:          req.Status,
		ModeratedBy:     moderator,
		RejectionReason: req.Reason,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// BulkModerate handles POST /api/v1/admin/reviews/bulk
func (h *ModerationHandler) BulkModerate(w http.ResponseWriter, r *http.Request) {
	moderator, ok := moderatorFromRequest(w, r)
	if !ok {
		return
	}

	var req BulkModerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	results, err := h.service.BulkModerate(r.Context(), service.BulkModerateInput{
		ReviewIDs:       req.ReviewIDs,
		Status:          req.Status,
		ModeratedBy:     moderator,
		RejectionReason: req.Reason,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: results})
}

// GetGlobalStats handles GET /api/v1/admin/reviews/stats
func (h *ModerationHandler) GetGlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context(), 0)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// DeleteReview handles DELETE /api/v1/admin/reviews/{id}
func (h *ModerationHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseInt64(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if _, ok := moderatorFromRequest(w, r); !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseDate accepts RFC3339 timestamps or bare dates.
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
