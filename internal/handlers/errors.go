package handlers

import (
	"log"
	"net/http"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/middleware"
	"todo-app/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const msgInternal = "internal server error"

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeAuthentication:
		return http.StatusUnauthorized
	case apperrors.CodeAuthorization:
		return http.StatusForbidden
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": message}. Server-side failures are logged and
// replaced with a generic message.
func writeError(c *gin.Context, err error) {
	writeErrorStatus(c, statusFor(apperrors.CodeOf(err)), err)
}

func writeErrorStatus(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(status, gin.H{"error": msgInternal})
		return
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperrors.MessageOf(err, http.StatusText(status))})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}

// uuidParam parses the named path parameter, answering 400 when it is not a UUID.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// caller returns the authenticated user; routes without Authenticate get a 401.
func caller(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.InvalidCredentials())
		return nil, false
	}
	return user, true
}
