// Package apperr は全機能共通のエラーモデル。
// 各レイヤは *APIError を返し、HTTP 境界で HTTPStatus / Body に変換する。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeParse           Code = "PARSE_ERROR"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	// Detail はユーザに見せてよい補足（interpreter の error 文言など）
	Detail string `json:"detail,omitempty"`
	cause  error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.cause }

func ErrParse(msg string) *APIError       { return &APIError{Code: CodeParse, Message: msg} }
func ErrInvalid(msg string) *APIError     { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError    { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError    { return &APIError{Code: CodeConflict, Message: msg} }
func ErrUnavailable(msg string) *APIError { return &APIError{Code: CodeUnavailable, Message: msg} }
func ErrInternal(msg string) *APIError    { return &APIError{Code: CodeInternal, Message: msg} }

// WithDetail returns a copy carrying a caller-visible detail string.
func (e *APIError) WithDetail(detail string) *APIError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// Wrap attaches the underlying cause; the cause is logged but never serialized.
func (e *APIError) Wrap(cause error) *APIError {
	cp := *e
	cp.cause = cause
	return &cp
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var api *APIError
	if errors.As(err, &api) {
		return api.Code == code
	}
	return false
}

func HTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return http.StatusBadRequest
		case CodeParse:
			return http.StatusUnprocessableEntity
		case CodeNotFound:
			return http.StatusNotFound
		case CodeConflict:
			return http.StatusConflict
		case CodeUnavailable:
			return http.StatusBadGateway
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail,omitempty"`
	} `json:"error"`
}

func Body(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

// BodyFrom は任意の error をレスポンスボディへ。*APIError 以外は内部エラー扱いで文言を伏せる。
func BodyFrom(err error) errorDTO {
	var api *APIError
	if errors.As(err, &api) {
		e := Body(api.Code, api.Message)
		e.Error.Detail = api.Detail
		return e
	}
	return Body(CodeInternal, "server error")
}
