package httpgin

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kirinyoku/tix-bff/internal/clock"
	"github.com/kirinyoku/tix-bff/internal/identity"
	"github.com/kirinyoku/tix-bff/internal/repository"
	"github.com/kirinyoku/tix-bff/internal/session"
)

const (
	ctxRequestID = "request_id"
	ctxSession   = "session"
	ctxUser      = "user"

	sessionCookie = "tix_session"
	sessionHeader = "X-Session-ID"
)

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}

		c.Writer.Header().Set("X-Request-ID", reqID)
		c.Set(ctxRequestID, reqID)

		c.Next()
	}
}

// CORS allows the SPA origins to call the API with credentials so the
// session cookie travels.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Request-ID",
			sessionHeader,
			"Idempotency-Key",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			sessionHeader,
			"ETag",
			"Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	return cors.New(cfg)
}

func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		reqID, _ := c.Get(ctxRequestID)

		attrs := []any{
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("ip", c.ClientIP()),
			slog.Any("request_id", reqID),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", c.Writer.Size()),
		}

		if st, ok := c.Get(ctxSession); ok {
			attrs = append(attrs, slog.String("session_id", st.(*session.State).ID))
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
			logger.Error("http", slog.Group("http", attrs...))
			return
		}

		logger.Info("http", slog.Group("http", attrs...))
	}
}

// SessionMiddleware attaches the caller's session state, creating and
// persisting a new one when the cookie or header names none that is live.
func SessionMiddleware(sessions SessionStore, clk clock.Clock, secureCookie bool, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(sessionHeader)
		if id == "" {
			id, _ = c.Cookie(sessionCookie)
		}

		var st *session.State
		if id != "" {
			loaded, err := sessions.Load(c.Request.Context(), id)
			switch {
			case err == nil:
				st = loaded
			case !errors.Is(err, repository.ErrNotFound):
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: msgUnavailable})
				return
			}
		}

		if st == nil {
			st = session.New(uuid.NewString(), clk.Now())
			if err := sessions.Save(c.Request.Context(), st); err != nil {
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: msgUnavailable})
				return
			}
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, st.ID, int(ttl.Seconds()), "/", "", secureCookie, true)
		c.Header(sessionHeader, st.ID)
		c.Set(ctxSession, st)

		c.Next()
	}
}

// AuthMiddleware resolves the bearer token, if any. Anonymous callers pass
// through; handlers decide whether they need a user.
func AuthMiddleware(v *identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u, ok := v.CurrentUser(c.GetHeader("Authorization")); ok {
			c.Set(ctxUser, u)
		}
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *session.State {
	return c.MustGet(ctxSession).(*session.State)
}

func userFrom(c *gin.Context) *identity.User {
	if v, ok := c.Get(ctxUser); ok {
		return v.(*identity.User)
	}
	return nil
}
