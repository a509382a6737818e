package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Tipos de erro comuns
var (
	ErrNotFound           = errors.New("recurso não encontrado")
	ErrBadRequest         = errors.New("requisição inválida")
	ErrConflict           = errors.New("recurso já existe")
	ErrInternalServer     = errors.New("erro interno do servidor")
	ErrServiceUnavailable = errors.New("serviço indisponível")
)

// APIError representa um erro da API com o status HTTP correspondente.
// Message é a linha legível devolvida ao cliente.
type APIError struct {
	Code        int    `json:"-"`
	Message     string `json:"message"`
	OriginalErr error  `json:"-"`
}

// Error implementa a interface error
func (e *APIError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.OriginalErr)
	}
	return e.Message
}

// Unwrap permite usar errors.Is e errors.As
func (e *APIError) Unwrap() error {
	return e.OriginalErr
}

// New cria um novo APIError
func New(code int, message string, err error) *APIError {
	return &APIError{
		Code:        code,
		Message:     message,
		OriginalErr: err,
	}
}

// NotFound cria um erro 404
func NotFound(message string, err error) *APIError {
	if err == nil {
		err = ErrNotFound
	}
	return New(http.StatusNotFound, message, err)
}

// BadRequest cria um erro 400
func BadRequest(message string, err error) *APIError {
	if err == nil {
		err = ErrBadRequest
	}
	return New(http.StatusBadRequest, message, err)
}

// Conflict cria um erro 409
func Conflict(message string, err error) *APIError {
	if err == nil {
		err = ErrConflict
	}
	return New(http.StatusConflict, message, err)
}

// InternalServer cria um erro 500
func InternalServer(message string, err error) *APIError {
	if message == "" {
		message = "Internal server error"
	}
	if err == nil {
		err = ErrInternalServer
	}
	return New(http.StatusInternalServerError, message, err)
}

// ServiceUnavailable cria um erro 503
func ServiceUnavailable(message string, err error) *APIError {
	if err == nil {
		err = ErrServiceUnavailable
	}
	return New(http.StatusServiceUnavailable, message, err)
}

// StatusCode extrai o status HTTP de um erro, 500 quando não for um APIError
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return http.StatusInternalServerError
}
