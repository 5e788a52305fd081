package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const maxJSONBodySize = 1 << 20

type ErrorResponse struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// publicErrors: ошибки, текст которых можно отдать клиенту. Более конкретные идут раньше общих.
var publicErrors = []struct {
	err  error
	code int
}{
	{e.ErrProductNotFound, http.StatusNotFound},
	{e.ErrOrderNotFound, http.StatusNotFound},
	{e.ErrUserNotFound, http.StatusNotFound},
	{e.ErrNotFound, http.StatusNotFound},

	{e.ErrInvalidTransition, http.StatusConflict},
	{e.ErrCannotCancel, http.StatusConflict},
	{e.ErrSKUTaken, http.StatusConflict},
	{e.ErrEmailTaken, http.StatusConflict},

	{e.ErrEmptyLineItems, http.StatusUnprocessableEntity},
	{e.ErrInvalidQuantity, http.StatusUnprocessableEntity},
	{e.ErrZeroDelta, http.StatusUnprocessableEntity},
	{e.ErrProductNameRequired, http.StatusUnprocessableEntity},
	{e.ErrSKURequired, http.StatusUnprocessableEntity},
	{e.ErrInvalidPrice, http.StatusUnprocessableEntity},
	{e.ErrInvalidStock, http.StatusUnprocessableEntity},
	{e.ErrInvalidThreshold, http.StatusUnprocessableEntity},
	{e.ErrAddressRequired, http.StatusUnprocessableEntity},
	{e.ErrInvalidEmail, http.StatusUnprocessableEntity},
	{e.ErrPasswordTooShort, http.StatusUnprocessableEntity},
	{e.ErrInvalidCSV, http.StatusUnprocessableEntity},
	{e.ErrValidation, http.StatusUnprocessableEntity},

	{e.ErrInvalidID, http.StatusBadRequest},
	{e.ErrStatusBadRequest, http.StatusBadRequest},

	{e.ErrInvalidCredentials, http.StatusUnauthorized},
	{e.ErrUnauthorized, http.StatusUnauthorized},
	{e.ErrForbidden, http.StatusForbidden},
	{e.ErrTooManyRequests, http.StatusTooManyRequests},
}

func ToHTTPResponse(err error) *ErrorResponse {
	if stockErr, ok := e.AsInsufficientStock(err); ok {
		resp := NewErrorResponse(http.StatusConflict, stockErr.Error())
		resp.Details = map[string]any{
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		}
		return resp
	}

	for _, pe := range publicErrors {
		if errors.Is(err, pe.err) {
			return NewErrorResponse(pe.code, pe.err.Error())
		}
	}

	return NewErrorResponse(http.StatusInternalServerError, e.ErrInternalServerError.Error())
}

func WriteError(w http.ResponseWriter, err error) {
	writeErrorResponse(w, ToHTTPResponse(err))
}

func writeErrorResponse(w http.ResponseWriter, resp *ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Code)
	json.NewEncoder(w).Encode(resp)
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// logError пишет 5xx как ошибку, остальное как предупреждение.
func logError(log logger.Logger, r *http.Request, err error) {
	resp := ToHTTPResponse(err)
	if resp.Code >= http.StatusInternalServerError {
		log.Errorf(err, "%s %s", r.Method, r.URL.Path)
		return
	}

	log.Warnf("%d %s %s: %v", resp.Code, r.Method, r.URL.Path, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return e.Wrap("expected application/json", e.ErrStatusBadRequest)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return e.Wrap("empty body", e.ErrStatusBadRequest)
		}
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %v", e.ErrStatusBadRequest, err))
	}

	return nil
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.Wrap(name, e.ErrInvalidID)
	}

	return id, nil
}

// parsePagination читает page/per_page. Некорректные значения оставляются нулями: их нормализует usecase.
func parsePagination(r *http.Request) (int, int) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	return page, perPage
}

func parseOptionalInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, e.Wrap(name, e.ErrInvalidID)
	}

	return &v, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", true
	}

	return strings.TrimSpace(token), true
}
