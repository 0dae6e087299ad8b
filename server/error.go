package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/goccy/date-detector/internal/logger"
)

type ServerError struct {
	Status   int         `json:"-"`
	Reason   ErrorReason `json:"reason"`
	Location string      `json:"location,omitempty"`
	Message  string      `json:"message"`
}

type ResponseError struct {
	Error *ErrorFormat `json:"error"`
}

type ErrorFormat struct {
	Errors  []*ServerError `json:"errors"`
	Code    int            `json:"code"`
	Message string         `json:"message"`
}

func (e *ServerError) Response() []byte {
	b, _ := json.Marshal(&ResponseError{
		Error: &ErrorFormat{
			Errors:  []*ServerError{e},
			Code:    e.Status,
			Message: e.Message,
		},
	})
	return b
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

type ErrorReason string

const (
	InternalError ErrorReason = "internalError"
	Invalid       ErrorReason = "invalid"
	NotFound      ErrorReason = "notFound"
)

func errInternalError(msg string) *ServerError {
	return &ServerError{
		Status:  http.StatusInternalServerError,
		Reason:  InternalError,
		Message: msg,
	}
}

func errInvalid(msg string) *ServerError {
	return &ServerError{
		Status:  http.StatusBadRequest,
		Reason:  Invalid,
		Message: msg,
	}
}

func errInvalidAt(location, msg string) *ServerError {
	err := errInvalid(msg)
	err.Location = location
	return err
}

func errNotFound(msg string) *ServerError {
	return &ServerError{
		Status:  http.StatusNotFound,
		Reason:  NotFound,
		Message: msg,
	}
}

func errorResponse(ctx context.Context, w http.ResponseWriter, e *ServerError) {
	if e.Status >= http.StatusInternalServerError {
		logger.Logger(ctx).Error(string(e.Reason), zap.Error(e))
	} else {
		logger.Logger(ctx).Debug(string(e.Reason), zap.Error(e))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	w.Write(e.Response())
}
