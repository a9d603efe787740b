package fakesite

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Error types reported in the error_type field.
const (
	errTypeInvalidAuth  = "invalid_auth"
	errTypeMissingFiles = "missing_files"
	errTypeInvalidPath  = "invalid_file_type"
	errTypeBadRequest   = "bad_request"
	errTypeServerError  = "server_error"
)

// Store errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidPath = errors.New("invalid path")
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Result    string `json:"result"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

// SuccessResponse is the body of a successful upload or delete.
type SuccessResponse struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

// ListResponse is the body of a successful /api/list request.
type ListResponse struct {
	Result string  `json:"result"`
	Files  []Entry `json:"files"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, code int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Result:    "error",
		ErrorType: errType,
		Message:   message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the response for a failed store operation.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	if errors.Is(err, ErrInvalidPath) {
		WriteError(w, http.StatusBadRequest, errTypeInvalidPath, err.Error())
		return
	}

	if errors.Is(err, ErrNotFound) {
		WriteError(w, http.StatusBadRequest, errTypeMissingFiles, err.Error())
		return
	}

	WriteError(w, http.StatusInternalServerError, errTypeServerError, "there was an error, please try again")
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
