package middleware

import (
	"log"
	"net/http"
	"strings"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/services"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "current_user"

// Authenticate resolves the bearer token to a user and stores it on the gin context. The
// request context also gains the transport details the access policy writes to the audit
// log.
func Authenticate(guard *services.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, apperrors.InvalidCredentials())
			return
		}
		if resolve(c, guard, token) {
			c.Next()
		}
	}
}

// OptionalAuthenticate lets requests without an Authorization header through anonymously.
// A header that is present must still carry a valid bearer token.
func OptionalAuthenticate(guard *services.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.TrimSpace(header) == "" {
			c.Next()
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			abort(c, apperrors.InvalidCredentials())
			return
		}
		if resolve(c, guard, token) {
			c.Next()
		}
	}
}

func resolve(c *gin.Context, guard *services.Guard, token string) bool {
	user, err := guard.CurrentUser(c.Request.Context(), token)
	if err != nil {
		abort(c, err)
		return false
	}

	SetCurrentUser(c, user)
	c.Request = c.Request.WithContext(services.WithRequestMeta(c.Request.Context(), services.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Method:    c.Request.Method,
		Path:      c.FullPath(),
	}))
	return true
}

// RequireRole must run after Authenticate.
func RequireRole(guard *services.Guard, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abort(c, apperrors.InvalidCredentials())
			return
		}
		if err := guard.RequireRole(user, role); err != nil {
			abort(c, err)
			return
		}
		c.Next()
	}
}

func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(currentUserKey, user)
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abort(c *gin.Context, err error) {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeAuthentication:
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperrors.MessageOf(err, apperrors.MsgInvalidCredentials)})
	case apperrors.CodeAuthorization:
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": apperrors.MessageOf(err, "forbidden")})
	default:
		log.Printf("Authentication failed on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
