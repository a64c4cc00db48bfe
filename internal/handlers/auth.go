package handlers

import (
	"net/http"
	"strings"

	"todo-app/backend/internal/apperrors"
	"todo-app/backend/internal/middleware"
	"todo-app/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type AuthHandler struct {
	authService services.AuthService
}

// LoginRequest binds from a JSON body or an urlencoded form.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register answers 400 for duplicates as well as for invalid input.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeConflict) {
			writeErrorStatus(c, http.StatusBadRequest, err)
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewUserResponse(user))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		badRequest(c, "username and password are required")
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(pair))
}

// Refresh accepts the token from a JSON body, a form field or the query string. A
// bearer-authenticated caller may only rotate their own token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if hasBindableBody(c) {
		if err := c.ShouldBind(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	if req.RefreshToken == "" {
		req.RefreshToken = c.Query("refresh_token")
	}

	caller, _ := middleware.CurrentUser(c)
	pair, err := h.authService.Refresh(c.Request.Context(), caller, req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(pair))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), user); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewUserResponse(user))
}

func hasBindableBody(c *gin.Context) bool {
	if c.Request.ContentLength == 0 {
		return false
	}
	switch c.ContentType() {
	case binding.MIMEJSON, binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		return true
	}
	return false
}
