package http

import (
	"time"

	domainRepo "nft-storefront/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	sessionUserValue       = "sessionID"
	sessionIssuedUserValue = "sessionIssued"
)

// SessionMiddleware assigns every visitor an opaque session id kept in a cookie.
type SessionMiddleware struct {
	cookieName string
	ttl        time.Duration
	sessions   domainRepo.SessionRepository
	logger     *zap.Logger
}

// NewSessionMiddleware creates the session middleware.
func NewSessionMiddleware(cookieName string, ttl time.Duration, sessions domainRepo.SessionRepository, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		cookieName: cookieName,
		ttl:        ttl,
		sessions:   sessions,
		logger:     logger.Named("SessionMiddleware"),
	}
}

// Wrap resolves or issues the session id before calling next.
func (m *SessionMiddleware) Wrap(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		sid := string(ctx.Request.Header.Cookie(m.cookieName))
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			m.setCookie(ctx, sid)
			ctx.SetUserValue(sessionIssuedUserValue, true)
		} else if err := m.sessions.Touch(ctx, sid); err != nil {
			m.logger.Warn("Failed to refresh session", zap.String("session", sid), zap.Error(err))
		}
		ctx.SetUserValue(sessionUserValue, sid)
		next(ctx)
	}
}

func (m *SessionMiddleware) setCookie(ctx *fasthttp.RequestCtx, sid string) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)

	c.SetKey(m.cookieName)
	c.SetValue(sid)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	if m.ttl > 0 {
		c.SetMaxAge(int(m.ttl / time.Second))
	}
	ctx.Response.Header.SetCookie(c)
}

// sessionIssued reports whether this response carries a freshly issued session cookie.
func sessionIssued(ctx *fasthttp.RequestCtx) bool {
	issued, _ := ctx.UserValue(sessionIssuedUserValue).(bool)
	return issued
}

// sessionID returns the id set by SessionMiddleware, or "" outside it.
func sessionID(ctx *fasthttp.RequestCtx) string {
	sid, _ := ctx.UserValue(sessionUserValue).(string)
	return sid
}
