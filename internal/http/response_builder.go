package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"masarify/internal/core"
	"masarify/internal/log"
	"masarify/internal/persistence"
	"masarify/internal/services"
)

// ResponseBuilder provides a fluent API for JSON and attachment responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
	err        error
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{statusCode: http.StatusOK, headers: make(map[string]string)}
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
	b.headers["Content-Type"] = "application/json; charset=utf-8"
	b.body, b.err = json.Marshal(v)
	return b
}

// Attachment sends content as a downloadable file.
func (b *ResponseBuilder) Attachment(filename, contentType, content string) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.headers["Content-Disposition"] = `attachment; filename="` + filename + `"`
	b.body = []byte(content)
	return b
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	if b.err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
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

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func ErrorResponse(statusCode int, code, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(ErrorBody{Error: code, Message: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, "validation_failed", message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

func InternalServerError() *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal_error", "An unexpected error occurred.")
}

// errorStatus maps service and persistence errors onto HTTP statuses.
func errorStatus(err error) (int, string) {
	var importErr *persistence.ImportError
	switch {
	case errors.As(err, &importErr):
		return http.StatusBadRequest, "invalid_backup"
	case errors.Is(err, persistence.ErrCategoryInUse):
		return http.StatusConflict, "category_in_use"
	case errors.Is(err, persistence.ErrCurrencyLocked):
		return http.StatusConflict, "currency_locked"
	case errors.Is(err, services.ErrValidation), errors.Is(err, persistence.ErrUnknownCurrency):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, services.ErrTransactionNotFound), errors.Is(err, services.ErrCategoryNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrInvalidPin):
		return http.StatusUnauthorized, "invalid_pin"
	case errors.Is(err, services.ErrLocked):
		return http.StatusLocked, "locked"
	case errors.Is(err, services.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_ready"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// ErrorFrom builds the response for err, localized to lang where the
// application has a user-facing text for it.
func ErrorFrom(err error, lang core.Language) *ResponseBuilder {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		return InternalServerError()
	}
	msg := persistence.Message(err, lang)
	if msg == "" {
		msg = err.Error()
	}
	return ErrorResponse(status, code, msg)
}

// writeError logs unexpected failures and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, err error, lang core.Language) {
	if status, _ := errorStatus(err); status >= 500 {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err)
	}
	ErrorFrom(err, lang).Write(w)
}
