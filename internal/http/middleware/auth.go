package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/auth"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/observability"
)

// identityKey is the Gin context key holding the caller's auth.Identity.
const identityKey = "identity"

// TokenParser resolves a bearer token to a user id.
type TokenParser interface {
	ParseToken(token string) (uint, error)
}

// Auth requires a valid "Authorization: Bearer <token>" header. The resolved
// identity is stored in the Gin context and the request context, and the
// request-scoped logger gains a user_id field.
func Auth(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := BearerToken(c.GetHeader("Authorization"))
		if tok == "" {
			abortError(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		uid, err := p.ParseToken(tok)
		if err != nil {
			abortError(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}
		SetIdentity(c, auth.Identity{UserID: uid})
		c.Next()
	}
}

// SetIdentity records id for the rest of the request and tags the active span.
func SetIdentity(c *gin.Context, id auth.Identity) {
	c.Set(identityKey, id)
	trace.SpanFromContext(c.Request.Context()).SetAttributes(observability.UserAttr(id.UserID))
	c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
	l := LoggerFrom(c).With().Uint("user_id", id.UserID).Logger()
	setLogger(c, &l)
}

// IdentityFrom returns the caller identity set by Auth.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(auth.Identity); ok && id.UserID != 0 {
			return id, true
		}
	}
	return auth.Identity{}, false
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	h := strings.TrimSpace(header)
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
