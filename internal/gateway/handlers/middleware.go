package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/access"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/auth"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/entitlement"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/logger"
)

type ctxKey int

const entitlementKey ctxKey = iota

// SessionValidator checks session tokens. *auth.Sessions implements it.
type SessionValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// EntitlementLoader resolves the caller's entitlement.
// *entitlement.Service implements it.
type EntitlementLoader interface {
	Load(ctx context.Context, userID, country string) (access.Entitlement, error)
}

type Middleware struct {
	sessions     SessionValidator
	entitlements EntitlementLoader
	access       *access.Controller
	logger       *zap.Logger
}

func NewMiddleware(sessions SessionValidator, entitlements EntitlementLoader, ctrl *access.Controller, log *zap.Logger) *Middleware {
	return &Middleware{
		sessions:     sessions,
		entitlements: entitlements,
		access:       ctrl,
		logger:       logger.OrDefault(log),
	}
}

// Authenticate attaches the caller's entitlement to the request context.
// Requests without a valid session continue as anonymous.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var userID string
		token, err := auth.TokenFromRequest(r)
		if err == nil {
			claims, verr := m.sessions.Validate(token)
			if verr == nil {
				userID = claims.UserID
			} else {
				m.logger.Debug("ignoring invalid session", zap.Error(verr))
			}
		} else if !errors.Is(err, auth.ErrNoToken) {
			m.logger.Debug("ignoring malformed authorization header", zap.Error(err))
		}

		country := entitlement.CountryFromHeaders(r.Header.Get)
		ent, err := m.entitlements.Load(r.Context(), userID, country)
		if err != nil {
			m.logger.Error("failed to load entitlement", zap.String("user_id", userID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load account", reasonInternal)
			return
		}

		ctx := context.WithValue(r.Context(), entitlementKey, ent)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects anonymous callers.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !EntitlementFrom(r.Context()).Authenticated {
			writeErr(w, access.ErrAuthenticationRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers without the admin role.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ent := EntitlementFrom(r.Context())
		if err := m.access.RequireAdmin(ent); err != nil {
			m.logger.Warn("admin route refused",
				zap.String("path", r.URL.Path),
				zap.String("user_id", ent.UserID),
			)
			writeErr(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EntitlementFrom returns the entitlement set by Authenticate, or an
// anonymous one.
func EntitlementFrom(ctx context.Context) access.Entitlement {
	ent, _ := ctx.Value(entitlementKey).(access.Entitlement)
	return ent
}

// CORSMiddleware handles CORS
func (m *Middleware) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, x-webhook-signature, x-webhook-timestamp")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request.
func (m *Middleware) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		m.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
	})
}

// clientIP identifies anonymous callers for rate limiting.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return "unknown"
}
