package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshmart/review-service/internal/repository"
	"github.com/freshmart/review-service/internal/service"
	"github.com/freshmart/review-service/pkg/httputil"
	"github.com/freshmart/review-service/pkg/pagination"
	"github.com/freshmart/review-service/pkg/validator"
)

// ReviewHandler handles the public (storefront) review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SubmitReviewRequest is the JSON request body for submitting a review.
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title   string `json:"title" validate:"required,max=100"`
	Comment string `json:"comment" validate:"required,min=10,max=1000"`
}

// HelpfulnessRequest is the JSON request body for a helpfulness vote.
type HelpfulnessRequest struct {
	Helpful *bool `json:"helpful" validate:"required"`
}

// --- Handlers ---

// ListProductReviews handles GET /api/v1/products/{productID}/reviews
func (h *ReviewHandler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseInt64(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	filter := repository.ProductReviewFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  params.Limit,
		Offset: params.Offset,
	}

	reviews, total, err := h.service.ListProductReviews(r.Context(), productID, filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(reviews, total, params))
}

// SubmitReview handles POST /api/v1/products/{productID}/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseInt64(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	customerID, ok := customerIDFromRequest(w, r)
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SubmitReviewRequest
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

	review, err := h.service.SubmitReview(r.Context(), service.SubmitReviewInput{
		ProductID:  productID,
		CustomerID: customerID,
		Rating:     req.Rating,
		Title:      req.Title,
		Comment:    req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// GetProductStats handles GET /api/v1/products/{productID}/reviews/stats
func (h *ReviewHandler) GetProductStats(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseInt64(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	stats, err := h.service.GetStats(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// CheckEligibility handles GET /api/v1/products/{productID}/reviews/eligibility
func (h *ReviewHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseInt64(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	customerID, ok := customerIDFromRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.CheckEligibility(r.Context(), customerID, productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// GetReview handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseInt64(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.service.GetReview(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// VoteHelpfulness handles POST /api/v1/reviews/{id}/helpfulness
func (h *ReviewHandler) VoteHelpfulness(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseInt64(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req HelpfulnessRequest
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

	review, err := h.service.VoteHelpfulness(r.Context(), id, *req.Helpful)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}
