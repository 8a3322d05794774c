package apiclient

import (
	"errors"
	"net/http"
	"net/url"
)

// APIError — сервер доступен, но отклонил запрос. Error() — сообщение для пользователя.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// TransportError — соединение не установлено или оборвалось.
// Error() совпадает с текстом исходной ошибки транспорта.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// unwrapURLError снимает обёртку *url.Error ("Get \"...\": dial tcp ...") до причины.
func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err
	}
	return err
}

// StatusCode возвращает HTTP-статус для *APIError и 0 для прочих ошибок.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized — токен отсутствует, истёк или отозван на сервере.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsConflict — сервер отклонил запись как дубликат (например, занятый id).
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}

// IsTransport — ошибка сети, а не ответ сервера.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// Message — текст ошибки для показа пользователю; fallback, если err пустой по тексту.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
