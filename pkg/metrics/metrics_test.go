package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer(t *testing.T) {
	t.Run("DefaultPort", func(t *testing.T) {
		s := NewServer(ServerConfig{})
		assert.Equal(t, DefaultPort, s.Port())
	})

	t.Run("ServesRegistry", func(t *testing.T) {
		InitRegistry()
		require.True(t, IsEnabled())

		s := NewServer(ServerConfig{Port: 19090})
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
