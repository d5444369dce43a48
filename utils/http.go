package utils

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every API response is wrapped in. Data and
// Errors are always present, as null when empty.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Errors  interface{} `json:"errors"`
}

// DefaultSuccessMessage is used when a handler has nothing more specific to say.
const DefaultSuccessMessage = "Success"

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a success envelope
func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) error {
	if message == "" {
		message = DefaultSuccessMessage
	}
	return WriteJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WriteOK writes a 200 OK response with optional data
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteSuccess(w, http.StatusOK, DefaultSuccessMessage, data)
}

// WriteCreated writes a 201 Created response with optional data
func WriteCreated(w http.ResponseWriter, message string, data interface{}) error {
	return WriteSuccess(w, http.StatusCreated, message, data)
}

// WriteError writes a failure envelope
func WriteError(w http.ResponseWriter, status int, message string, errs interface{}) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return WriteJSON(w, status, Response{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}

// WriteBadRequest writes a 400 Bad Request response with error details
func WriteBadRequest(w http.ResponseWriter, message string, errs interface{}) error {
	if message == "" {
		message = "Validation Error"
	}
	return WriteError(w, http.StatusBadRequest, message, errs)
}

// WriteUnauthorized writes a 401 Unauthorized response
func WriteUnauthorized(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Unauthorized"
	}
	return WriteError(w, http.StatusUnauthorized, message, nil)
}

// WriteForbidden writes a 403 Forbidden response
func WriteForbidden(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Forbidden"
	}
	return WriteError(w, http.StatusForbidden, message, nil)
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return WriteError(w, http.StatusNotFound, message, nil)
}

// WriteConflict writes a 409 Conflict response
func WriteConflict(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusConflict, message, nil)
}

// WriteTooManyRequests writes a 429 Too Many Requests response
func WriteTooManyRequests(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Too many requests"
	}
	return WriteError(w, http.StatusTooManyRequests, message, nil)
}

// WriteInternalServerError writes a 500 Internal Server Error response.
// detail is only serialized when non-nil.
func WriteInternalServerError(w http.ResponseWriter, message string, detail interface{}) error {
	if message == "" {
		message = "Internal Server Error"
	}
	return WriteError(w, http.StatusInternalServerError, message, detail)
}
