package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRequest(t *testing.T, incoming string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var captured string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		captured = Value(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	if incoming != "" {
		req.Header.Set(Header, incoming)
	}
	r.ServeHTTP(w, req)
	return w, captured
}

func TestMiddlewareKeepsIncomingID(t *testing.T) {
	w, captured := runRequest(t, "upstream-id")
	assert.Equal(t, "upstream-id", captured)
	assert.Equal(t, "upstream-id", w.Header().Get(Header))
}

func TestMiddlewareAssignsUUID(t *testing.T) {
	w, captured := runRequest(t, "")
	require.NotEmpty(t, captured)
	_, err := uuid.Parse(captured)
	require.NoError(t, err)
	assert.Equal(t, captured, w.Header().Get(Header))
}
