package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tracker/internal/core"
	"tracker/internal/identity"
	"tracker/internal/log"
	"tracker/internal/store"
)

// ResponseBuilder provides a fluent API for JSON and SVG responses.
type ResponseBuilder struct {
	statusCode int
	body       []byte
	headers    map[string]string
	err        error
}

// NewResponse creates a builder with a 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON encodes v as the body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.headers["Content-Type"] = "application/json"
	b.body, b.err = json.Marshal(v)
	return b
}

// SVG sets an SVG document as the body.
func (b *ResponseBuilder) SVG(doc string) *ResponseBuilder {
	b.headers["Content-Type"] = "image/svg+xml"
	b.headers["Cache-Control"] = "no-store"
	b.body = []byte(doc)
	return b
}

// Write sends the built response.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	if b.err != nil {
		slog.Error("Failed to encode response", "error", b.err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message).Header("WWW-Authenticate", "Bearer")
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// writeError maps domain errors to status codes. Anything unrecognized is
// logged and reported as a 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadRequest):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, identity.ErrMissingToken), errors.Is(err, identity.ErrInvalidToken):
		UnauthorizedError(err.Error()).Write(w)
	case errors.Is(err, store.ErrNotFound):
		NotFoundError("transaction not found").Write(w)
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyOwner),
		errors.Is(err, errValidation):
		UnprocessableEntityError(err.Error()).Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err.Error(),
			log.FieldPath, r.URL.Path)
		InternalServerError("internal error").Write(w)
	}
}
