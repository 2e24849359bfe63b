package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequestHandler_CreateRequest_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RequestHandler{requests: nil}
	r.POST("/requests", handler.CreateRequest)

	req, _ := http.NewRequest("POST", "/requests", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestHandler_GetRequest_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler := &RequestHandler{requests: nil}
	r.GET("/requests/:id", handler.GetRequest)

	req, _ := http.NewRequest("GET", "/requests/invalid-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandler_CreateRequest_InvalidProductID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler := &RequestHandler{requests: nil}
	r.POST("/requests", handler.CreateRequest)

	body := `{"product_id": "not-a-uuid", "quantity": 10}`
	req, _ := http.NewRequest("POST", "/requests", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandler_UpdateLevelStatus_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RequestHandler{requests: nil}
	r.PATCH("/requests/:id/status", handler.UpdateLevelStatus)

	requestID := uuid.New()
	body := `{"level": "kebele", "status": "approved"}`
	req, _ := http.NewRequest("PATCH", "/requests/"+requestID.String()+"/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestHandler_ListRequests_InvalidFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("role", "farmer")
		c.Next()
	})
	handler := &RequestHandler{requests: nil}
	r.GET("/requests", handler.ListRequests)

	req, _ := http.NewRequest("GET", "/requests?statusFilter=bogus", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandler_ConfirmDelivery_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RequestHandler{requests: nil}
	r.POST("/requests/:id/delivery", handler.ConfirmDelivery)

	requestID := uuid.New()
	req, _ := http.NewRequest("POST", "/requests/"+requestID.String()+"/delivery", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
