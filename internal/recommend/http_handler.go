package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"bookrec/internal/httpx"
)

type HTTPHandler struct {
	svc     *Service
	timeout time.Duration
}

// NewHTTPHandler wires the recommendation endpoints. requestTimeout caps the
// end-to-end latency of one request, including all upstream calls.
func NewHTTPHandler(svc *Service, requestTimeout time.Duration) *HTTPHandler {
	return &HTTPHandler{svc: svc, timeout: requestTimeout}
}

type recommendRequest struct {
	Books   []string `json:"books" validate:"required,min=1,max=5,dive,min=1"`
	Filters Filters  `json:"filters"`
}

type recommendResponse struct {
	Status          string           `json:"status"`
	Recommendations []Recommendation `json:"recommendations"`
	Pagination      *Pagination      `json:"pagination,omitempty"`
}

// Recommend handles POST /api/recommend
func (h *HTTPHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	page, perPage := pageParams(r)

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.svc.Recommend(ctx, req.Books, req.Filters, page, perPage)
	if err != nil {
		status, message := errorStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("recommendation failed request_id=%s err=%v", httpx.RequestIDFrom(r), err)
		}
		httpx.JSONError(w, r, status, message)
		return
	}

	httpx.JSON(w, http.StatusOK, recommendResponse{
		Status:          "completed",
		Recommendations: result.Recommendations,
		Pagination:      result.Pagination,
	})
}

// RecommendStream handles POST /api/recommend/stream, reporting pipeline
// progress as server-sent events. The terminal event is either the completed
// stage carrying the recommendations, or an error event.
func (h *HTTPHandler) RecommendStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	page, perPage := pageParams(r)

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.JSONError(w, r, http.StatusInternalServerError, "Streaming is not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	emit := func(ev ProgressEvent) {
		payload, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, err := h.svc.RecommendProgress(ctx, req.Books, req.Filters, page, perPage, emit); err != nil {
		status, message := errorStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("recommendation stream failed request_id=%s err=%v", httpx.RequestIDFrom(r), err)
		}
		emit(ProgressEvent{Stage: StageError, Error: message})
	}
}

func (h *HTTPHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (recommendRequest, bool) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, validationMessage(err))
		return req, false
	}
	return req, true
}

func pageParams(r *http.Request) (page, perPage int) {
	query := r.URL.Query()
	page, _ = strconv.Atoi(query.Get("page"))
	perPage, _ = strconv.Atoi(query.Get("per_page"))
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

// errorStatus maps pipeline errors to a status code and a safe message.
func errorStatus(err error) (int, string) {
	var noCandidates *NoCandidatesError
	switch {
	case errors.Is(err, ErrNoInputsResolved):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &noCandidates):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
