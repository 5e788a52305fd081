package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DRSN-tech/order-backend/internal/cfg"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitedHandler(limiter *fakeLimiter, authLimit, guestLimit int) (http.Handler, *Middleware) {
	mw := NewMiddleware(
		newFakeAuthUC(customer),
		limiter,
		&cfg.RateLimitCfg{AuthenticatedLimit: authLimit, GuestLimit: guestLimit, Window: time.Minute},
		logger.Nop(),
	)
	mw.now = func() time.Time { return limiter.reset.Add(-20 * time.Second) }

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return mw.Authenticate(mw.RateLimit(ok)), mw
}

func TestRateLimit_Guest(t *testing.T) {
	limiter := newFakeLimiter()
	h, _ := newRateLimitedHandler(limiter, 5, 2)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.7:5123"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := send()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	require.Equal(t, http.StatusOK, send().Code)

	rec = send()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "20", rec.Header().Get("Retry-After"))

	res := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Equal(t, 20, res.RetryAfter)
	assert.Equal(t, e.ErrTooManyRequests.Error(), res.Message)

	assert.Equal(t, 3, limiter.hits["ip:10.0.0.7"])
}

func TestRateLimit_AuthenticatedUsesUserSubject(t *testing.T) {
	limiter := newFakeLimiter()
	h, _ := newRateLimitedHandler(limiter, 5, 1)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(customer))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	}

	assert.Equal(t, 3, limiter.hits[fmt.Sprintf("user:%d", customer.ID)])
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := newFakeLimiter()
	limiter.err = errors.New("redis: connection refused")
	h, _ := newRateLimitedHandler(limiter, 1, 1)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestAuthenticate(t *testing.T) {
	mw := NewMiddleware(newFakeAuthUC(customer), newFakeLimiter(), &cfg.RateLimitCfg{}, logger.Nop())

	var seen bool
	h := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantUser bool
	}{
		{"guest", "", http.StatusOK, false},
		{"valid token", "Bearer " + tokenFor(customer), http.StatusOK, true},
		{"lowercase scheme", "bearer " + tokenFor(customer), http.StatusOK, true},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, false},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, false},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = false
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantUser, seen)
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(admin.Role, vendor.Role)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(req *http.Request) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(req))
	assert.Equal(t, http.StatusForbidden, serve(req.WithContext(withUser(req.Context(), customer))))
	assert.Equal(t, http.StatusOK, serve(req.WithContext(withUser(req.Context(), vendor))))
	assert.Equal(t, http.StatusOK, serve(req.WithContext(withUser(req.Context(), admin))))
}

func TestToHTTPResponse(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{e.Wrap("repo", e.ErrProductNotFound), http.StatusNotFound},
		{e.ErrOrderNotFound, http.StatusNotFound},
		{e.NewInsufficientStockError(1, "", 2, 1), http.StatusConflict},
		{e.ErrInvalidTransition, http.StatusConflict},
		{e.ErrCannotCancel, http.StatusConflict},
		{e.ErrSKUTaken, http.StatusConflict},
		{e.ErrEmptyLineItems, http.StatusUnprocessableEntity},
		{e.ErrInvalidQuantity, http.StatusUnprocessableEntity},
		{e.ErrInvalidID, http.StatusBadRequest},
		{e.ErrInvalidCredentials, http.StatusUnauthorized},
		{e.ErrForbidden, http.StatusForbidden},
		{e.ErrTooManyRequests, http.StatusTooManyRequests},
		{errors.New("pq: connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, ToHTTPResponse(tt.err).Code)
		})
	}

	assert.Equal(t, e.ErrInternalServerError.Error(), ToHTTPResponse(errors.New("secret dsn")).Message)
	assert.Equal(t, e.ErrEmptyLineItems.Error(), ToHTTPResponse(e.Wrap("op", e.ErrEmptyLineItems)).Message)
}

func TestNewPageMeta(t *testing.T) {
	assert.Equal(t, pageMeta{Total: 31, Page: 2, PerPage: 15, LastPage: 3}, newPageMeta(31, 2, 15))
	assert.Equal(t, pageMeta{Total: 0, Page: 1, PerPage: 15, LastPage: 1}, newPageMeta(0, 1, 15))
}
