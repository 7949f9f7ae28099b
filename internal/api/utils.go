package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"lilith-backend/internal/core"
	"lilith-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(code int, err error) error {
	return &codedError{err: err, code: code}
}

func CodedErrorf(code int, format string, args ...any) error {
	return &codedError{err: fmt.Errorf(format, args...), code: code}
}

func ParseRequest[T any](r *http.Request) (T, error) {
	var data T
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		slog.Error("error parsing request body", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request body")
	}
	return data, nil
}

func ParseRequestQueryParams[T any](r *http.Request) (T, error) {
	var data T
	if err := r.ParseForm(); err != nil {
		slog.Error("error parsing form", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request query params")
	}

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(&data, r.Form); err != nil {
		slog.Error("error decoding query params", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request query params")
	}

	return data, nil
}

type statusResponse struct {
	status int
	body   any
}

// WithStatus lets a handler reply with a success code other than 200.
func WithStatus(status int, body any) any {
	return statusResponse{status: status, body: body}
}

func statusForKind(kind core.Kind) int {
	switch kind {
	case core.KindValidation, core.KindConflict:
		return http.StatusBadRequest
	case core.KindAuth:
		return http.StatusUnauthorized
	case core.KindNotFound, core.KindForbidden:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var (
		cerr    *codedError
		status  int
		message string
	)

	if errors.As(err, &cerr) {
		status = cerr.code
		message = err.Error()
	} else {
		status = statusForKind(core.KindOf(err))
		message = core.PublicMessage(err)
	}

	if status == http.StatusInternalServerError {
		slog.Error("internal server error received in endpoint", "error", err)
		message = "internal server error"
	}

	writeJson(w, status, api.ErrorResponse{Error: message})
}

func RestHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			writeError(w, err)
			return
		}

		status := http.StatusOK
		if sr, ok := res.(statusResponse); ok {
			status, res = sr.status, sr.body
		}

		if res == nil {
			res = struct{}{}
		}

		writeJson(w, status, res)
	}
}

func writeJson(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("error serializing response body", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("error writing response body", "error", err)
	}
}

func URLParamUint(r *http.Request, key string) (uint, error) {
	param := chi.URLParam(r, key)

	if len(param) == 0 {
		return 0, CodedErrorf(http.StatusBadRequest, "missing {%v} url parameter", key)
	}

	id, err := strconv.ParseUint(param, 10, 64)
	if err != nil || id == 0 {
		return 0, CodedErrorf(http.StatusBadRequest, "invalid '%v' url parameter provided", key)
	}

	return uint(id), nil
}
