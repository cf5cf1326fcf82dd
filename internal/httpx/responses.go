package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes a structured error response. The message is always
// human-readable; raw internal errors never reach the client.
func JSONError(w http.ResponseWriter, r *http.Request, status int, message string) {
	JSON(w, status, ErrorResponse{
		Error:     message,
		RequestID: RequestIDFrom(r),
	})
}
