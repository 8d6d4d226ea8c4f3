package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/avoronkov/vidtube/internal/apperrors"
)

var validate = newValidator()

type Struct any

// Response is the success envelope common to every endpoint
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
}

// ErrorResponse mirrors Response for failures. Fields is filled for
// validation errors only.
type ErrorResponse struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// JSON renders the success envelope with the given status code
func JSON(w http.ResponseWriter, code int, data any, message string) {
	jsonWithStatus(w, Response{StatusCode: code, Data: data, Message: message}, code)
}

// OK is JSON with http.StatusOK
func OK(w http.ResponseWriter, data any, message string) {
	JSON(w, http.StatusOK, data, message)
}

// Error renders the error envelope with the given status code
func Error(w http.ResponseWriter, code int, message string) {
	jsonWithStatus(w, ErrorResponse{StatusCode: code, Message: message}, code)
}

// AppError maps service errors to the error envelope. Typed errors carry
// their own status code and client-safe message, anything else is a 500.
func AppError(w http.ResponseWriter, err error) {
	if appErr, ok := apperrors.AsError(err); ok {
		Error(w, appErr.Code, appErr.Message)
		return
	}

	Error(w, http.StatusInternalServerError, "Internal server error")
}

// DecodeError renders json decoding failures
func DecodeError(w http.ResponseWriter, err error) {
	message := fmt.Sprintf("Failed to parse JSON: %s", err.Error())

	// Try to provide more specific error message based on error type
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	}

	Error(w, http.StatusBadRequest, message)
}

// ValidationErrors renders per-field validation messages
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	response := ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Message:    "Request validation failed",
		Fields:     make(map[string]string, len(errs)),
	}

	// Create user-friendly error messages based on validation tag
	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "email":
			message = "Must be a valid email address"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		default:
			message = "Invalid value"
		}

		response.Fields[fieldError.Field()] = message
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}

// jsonWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
