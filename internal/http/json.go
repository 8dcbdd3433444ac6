package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/leadgrid/leadgrid/internal/errors"
)

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// WriteServiceError maps an application error to the matching HTTP response.
func WriteServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: err})
		return
	}

	code := http.StatusInternalServerError
	switch appErr.Code {
	case apperrors.ErrCodeNotFound:
		code = http.StatusNotFound
	case apperrors.ErrCodeConflict:
		code = http.StatusConflict
	case apperrors.ErrCodeValidation:
		code = http.StatusBadRequest
	case apperrors.ErrCodeTimeout:
		code = http.StatusGatewayTimeout
	case apperrors.ErrCodeCanceled:
		code = http.StatusRequestTimeout
	}

	WriteError(w, ErrorParams{Code: code, ErrCode: string(appErr.Code), Err: appErr})
}
