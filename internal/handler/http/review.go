package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vinylen2/ellabib-server/internal/service"
	apperrors "github.com/vinylen2/ellabib-server/pkg/errors"
	"github.com/vinylen2/ellabib-server/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
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
	BookID              string `json:"book_id" validate:"required"`
	UserID              string `json:"user_id" validate:"required"`
	Rating              int    `json:"rating" validate:"required,gte=1,lte=5"`
	ReviewText          string `json:"review_text"`
	DescriptionText     string `json:"description_text"`
	ReviewAudioURL      string `json:"review_audio_url"`
	DescriptionAudioURL string `json:"description_audio_url"`
}

// ActivateReviewsRequest is the JSON request body for batch activation.
type ActivateReviewsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// EditTextRequest is the JSON request body for editing review text.
type EditTextRequest struct {
	Field string `json:"field" validate:"required,oneof=review description"`
	Text  string `json:"text" validate:"required"`
}

// EditRatingRequest is the JSON request body for editing a review rating.
type EditRatingRequest struct {
	Rating int `json:"rating" validate:"required,gte=1,lte=5"`
}

// EditAudioRequest is the JSON request body for editing a review recording.
type EditAudioRequest struct {
	Field string `json:"field" validate:"required,oneof=review description"`
	URL   string `json:"url" validate:"required"`
}

// --- Response envelope ---

type response struct {
	Data  any            `json:"data,omitempty"`
	Error *errorResponse `json:"error,omitempty"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// --- Handlers ---

// SubmitReview handles POST /api/v1/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	input := &service.SubmitReviewInput{
		BookID:              req.BookID,
		UserID:              req.UserID,
		Rating:              req.Rating,
		ReviewText:          req.ReviewText,
		DescriptionText:     req.DescriptionText,
		ReviewAudioURL:      req.ReviewAudioURL,
		DescriptionAudioURL: req.DescriptionAudioURL,
	}

	review, err := h.service.SubmitReview(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: review})
}

// ListInactiveReviews handles GET /api/v1/reviews/inactive
func (h *ReviewHandler) ListInactiveReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListPendingReviews(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: reviews})
}

// CountActiveReviews handles GET /api/v1/reviews/count
func (h *ReviewHandler) CountActiveReviews(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountActiveReviews(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]int{"count": count}})
}

// ListBookReviews handles GET /api/v1/books/{id}/reviews
func (h *ReviewHandler) ListBookReviews(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if bookID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "book id is required"},
		})
		return
	}

	reviews, err := h.service.ListBookReviews(r.Context(), bookID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: reviews})
}

// ActivateReviews handles POST /api/v1/reviews/activate
func (h *ReviewHandler) ActivateReviews(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req ActivateReviewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	result, err := h.service.ActivateReviews(r.Context(), req.IDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: result})
}

// ActivateReview handles POST /api/v1/reviews/{id}/activate
func (h *ReviewHandler) ActivateReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "review id is required"},
		})
		return
	}

	review, err := h.service.ActivateReview(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: review})
}

// DeleteReview handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "review id is required"},
		})
		return
	}

	review, err := h.service.DeleteReview(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: review})
}

// EditReviewText handles PATCH /api/v1/reviews/{id}/text
func (h *ReviewHandler) EditReviewText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "review id is required"},
		})
		return
	}

	var req EditTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	review, err := h.service.EditReviewText(r.Context(), id, req.Field, req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: review})
}

// EditReviewRating handles PATCH /api/v1/reviews/{id}/rating
func (h *ReviewHandler) EditReviewRating(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "review id is required"},
		})
		return
	}

	var req EditRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	review, err := h.service.EditReviewRating(r.Context(), id, req.Rating)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: review})
}

// EditReviewAudio handles PATCH /api/v1/reviews/{id}/audio
func (h *ReviewHandler) EditReviewAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "review id is required"},
		})
		return
	}

	var req EditAudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	review, err := h.service.EditReviewAudio(r.Context(), id, req.Field, req.URL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: review})
}

// --- Helpers ---

func (h *ReviewHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, err)
}

func (h *ReviewHandler) writeValidationError(w http.ResponseWriter, err error) {
	writeValidationError(w, err)
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Status, response{
			Error: &errorResponse{Code: appErr.Code, Message: appErr.Message},
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code = "NOT_FOUND"
		message = "resource not found"
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidState):
		code = "INVALID_STATE_TRANSITION"
		message = err.Error()
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidInput):
		code = "INVALID_INPUT"
		message = err.Error()
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	writeJSON(w, status, response{
		Error: &errorResponse{Code: code, Message: message},
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	writeJSON(w, http.StatusBadRequest, response{
		Error: &errorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
