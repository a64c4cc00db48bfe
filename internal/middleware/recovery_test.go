package middleware_test

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todo-app/backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(previous) })
	return &buf
}

func TestRecoveryWithLog_NoPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRecoveryWithLog_WithPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	req, _ := http.NewRequest("GET", "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}

	expectedError := `{"error":"internal server error"}`
	if w.Body.String() != expectedError {
		t.Errorf("Expected error message %s, got %s", expectedError, w.Body.String())
	}
}

func TestRecoveryWithLog_LogsRequestAndStack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logs := captureLog(t)

	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	router.POST("/tasks/:id", func(c *gin.Context) {
		panic("nil task store")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks/42", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	output := logs.String()
	assert.Contains(t, output, "Panic recovered on POST /tasks/42: nil task store")
	assert.Contains(t, output, "goroutine")
	assert.Contains(t, output, "runtime/debug.Stack")
}

func TestRecoveryWithLog_AfterHeadersWritten(t *testing.T) {
	gin.SetMode(gin.TestMode)
	captureLog(t)

	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	router.GET("/stream", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("lost connection to cache")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream", nil))

	// The status line is already on the wire; only the body can still change.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "partial"), w.Body.String())
}

func TestRecoveryWithLog_StopsLaterHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	captureLog(t)

	ran := false
	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	router.Use(func(c *gin.Context) {
		c.Next()
		ran = true
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, ran)
}
