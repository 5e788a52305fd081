package http

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/DRSN-tech/order-backend/internal/cfg"
	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
)

type ctxKey int

const userCtxKey ctxKey = iota

func withUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext возвращает пользователя, установленного Authenticate.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userCtxKey).(*domain.User)
	return user, ok && user != nil
}

type Middleware struct {
	authUC  usecase.AuthUC
	limiter usecase.RateLimitRepository
	cfg     *cfg.RateLimitCfg
	logger  logger.Logger
	now     func() time.Time
}

func NewMiddleware(authUC usecase.AuthUC, limiter usecase.RateLimitRepository, cfg *cfg.RateLimitCfg, logger logger.Logger) *Middleware {
	return &Middleware{
		authUC:  authUC,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Authenticate кладёт пользователя в контекст, если передан токен. Запрос без токена идёт дальше как гостевой,
// а запрос с некорректным токеном отклоняется.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, present := bearerToken(r)
		if !present {
			next.ServeHTTP(w, r)
			return
		}

		if token == "" {
			WriteError(w, e.ErrUnauthorized)
			return
		}

		user, err := m.authUC.Authenticate(r.Context(), token)
		if err != nil {
			logError(m.logger, r, err)
			WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			WriteError(w, e.ErrUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				WriteError(w, e.ErrUnauthorized)
				return
			}

			for _, role := range roles {
				if user.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			WriteError(w, e.ErrForbidden)
		})
	}
}

// RateLimit ограничивает запросы в фиксированном окне: пользователя по id, гостя по IP.
// При недоступном Redis запрос пропускается.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, limit := "ip:"+clientIP(r), m.cfg.GuestLimit
		if user, ok := UserFromContext(r.Context()); ok {
			subject, limit = "user:"+strconv.FormatInt(user.ID, 10), m.cfg.AuthenticatedLimit
		}

		res, err := m.limiter.Hit(r.Context(), subject, limit, m.cfg.Window)
		if err != nil {
			m.logger.Warnf("rate limiter unavailable: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			retryAfter := res.RetryAfter(m.now())
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			resp := NewErrorResponse(http.StatusTooManyRequests, e.ErrTooManyRequests.Error())
			resp.RetryAfter = retryAfter
			writeErrorResponse(w, resp)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP берёт адрес из RemoteAddr; X-Forwarded-For учитывает middleware.RealIP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
