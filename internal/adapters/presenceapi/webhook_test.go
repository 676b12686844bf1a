package presenceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priceflow/internal/core/port"
)

func TestHandlerDispatchesToRegisteredCommand(t *testing.T) {
	c := New("http://example.invalid", "token")
	c.OnCommand("price", func(ctx context.Context, inv port.CommandInvocation) (string, bool) {
		return "BTC: 65,000", false
	})

	body, err := json.Marshal(map[string]any{"command": "price", "guild_id": "g1", "args": map[string]string{}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/interactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp interactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "BTC: 65,000", resp.Reply)
	assert.False(t, resp.Error)
}

func TestHandlerUnknownCommand(t *testing.T) {
	c := New("http://example.invalid", "token")

	body, _ := json.Marshal(map[string]any{"command": "nope"})
	req := httptest.NewRequest(http.MethodPost, "/interactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerMalformedBody(t *testing.T) {
	c := New("http://example.invalid", "token")

	req := httptest.NewRequest(http.MethodPost, "/interactions", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
