package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"opinex/internal/domain/survey"
	"opinex/internal/domain/user"
	"opinex/internal/metrics"
	"opinex/internal/platform/apperr"
	jwtpkg "opinex/internal/platform/jwt"
)

type ctxKey string

const ctxKeyClaims ctxKey = "claims"

// AuthMiddleware answers 401 when no token is sent and 403 when the token
// does not verify.
func AuthMiddleware(jm *jwtpkg.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
			token = strings.TrimSpace(token)
			if scheme == "" || (strings.EqualFold(scheme, "bearer") && token == "") {
				errorResponse(w, r, apperr.Unauthorized("missing_token", "access token is missing", nil))
				return
			}
			if !strings.EqualFold(scheme, "bearer") {
				errorResponse(w, r, apperr.Forbidden("invalid_token", "invalid authorization header", nil))
				return
			}

			claims, err := jm.Parse(token)
			if err != nil {
				errorResponse(w, r, apperr.Forbidden("invalid_token", "invalid or expired token", err))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserLookup resolves the account behind a verified token.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// CurrentRole replaces the role carried by the token with the one stored for
// the account, so role changes apply to tokens issued before them.
func CurrentRole(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromCtx(r)
			if claims == nil {
				errorResponse(w, r, apperr.Unauthorized("missing_token", "access token is missing", nil))
				return
			}

			u, err := users.GetByID(r.Context(), claims.UserID)
			if errors.Is(err, user.ErrNotFound) {
				errorResponse(w, r, apperr.Forbidden("invalid_token", "account no longer exists", err))
				return
			}
			if err != nil {
				errorResponse(w, r, err)
				return
			}

			current := *claims
			current.Role = string(u.Role)
			ctx := context.WithValue(r.Context(), ctxKeyClaims, &current)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireRole(role user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromCtx(r)
			if claims == nil || claims.Role != string(role) {
				errorResponse(w, r, apperr.Forbidden("forbidden", "insufficient permissions", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFromCtx(r *http.Request) *jwtpkg.Claims {
	claims, _ := r.Context().Value(ctxKeyClaims).(*jwtpkg.Claims)
	return claims
}

func isAdmin(r *http.Request) bool {
	claims := claimsFromCtx(r)
	return claims != nil && claims.Role == string(user.RoleAdmin)
}

// actorFromRequest builds the caller identity from verified claims; name is
// the display name the client supplied.
func actorFromRequest(r *http.Request, name string) survey.Actor {
	claims := claimsFromCtx(r)
	if claims == nil {
		return survey.Actor{}
	}
	return survey.Actor{
		Email:   claims.Email,
		Name:    strings.TrimSpace(name),
		IsAdmin: claims.Role == string(user.RoleAdmin),
	}
}

// CORSMiddleware allows the configured origins; "*" allows any.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	allowAll := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "":
				w.Header().Add("Vary", "Origin")
				if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RateLimitVotes(r rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := newIPRateLimiter(r, burst, 10*time.Minute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(clientIP(r)) {
				errorResponse(w, r, apperr.TooManyRequests("rate_limited", "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger writes one structured line per request and feeds the
// request counters.
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			reqLog := log.With().Str("request_id", chimw.GetReqID(r.Context())).Logger()
			r = r.WithContext(reqLog.WithContext(r.Context()))
			next.ServeHTTP(rw, r)

			status := rw.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			duration := time.Since(start)

			metrics.IncRequest(r.Method, route, status)
			metrics.ObserveRequest(r.Method, route, duration)

			evt := log.Info()
			if status >= 500 {
				evt = log.Error()
			} else if status >= 400 {
				evt = log.Warn()
			}
			evt.
				Str("method", r.Method).
				Str("path", route).
				Int("status", status).
				Dur("duration_ms", duration).
				Int("bytes", rw.BytesWritten()).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	limit    rate.Limit
	burst    int
	entryTTL time.Duration
}

func newIPRateLimiter(limit rate.Limit, burst int, entryTTL time.Duration) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		limit:    limit,
		burst:    burst,
		entryTTL: entryTTL,
	}
}

func (l *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, ts := range l.lastSeen {
		if now.Sub(ts) > l.entryTTL {
			delete(l.limiters, key)
			delete(l.lastSeen, key)
		}
	}

	if limiter, ok := l.limiters[ip]; ok {
		l.lastSeen[ip] = now
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.limiters[ip] = limiter
	l.lastSeen[ip] = now
	return limiter
}

func (l *ipRateLimiter) allow(ip string) bool {
	return l.getLimiter(ip).Allow()
}

// clientIP relies on chi's RealIP having already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
