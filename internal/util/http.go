package util

import (
	"encoding/json"
	"net/http"
)

// Envelope is the JSON body shape for every gateway-originated response.
// Downstream responses pass through the forwarder verbatim and never use it.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes an arbitrary JSON payload with the given status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes a gateway error envelope with the given status code.
func WriteError(w http.ResponseWriter, status int, errText, message string) {
	WriteJSON(w, status, Envelope{
		Success: false,
		Error:   errText,
		Message: message,
	})
}

// ResponseWriter wraps http.ResponseWriter to capture status code and size.
type ResponseWriter struct {
	http.ResponseWriter
	Status        int
	Size          int
	headerWritten bool
}

// NewResponseWriter creates a wrapper with a default status of 200 OK.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, Status: http.StatusOK}
}

// WriteHeader captures the status code.
func (rw *ResponseWriter) WriteHeader(code int) {
	if rw.headerWritten {
		return
	}
	rw.Status = code
	rw.headerWritten = true
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size.
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	rw.headerWritten = true
	n, err := rw.ResponseWriter.Write(b)
	rw.Size += n
	return n, err
}

// Flush implements http.Flusher for streaming support.
func (rw *ResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Compile-time interface assertion.
var _ http.Flusher = (*ResponseWriter)(nil)
