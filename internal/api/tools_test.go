package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnkp755/chefcognito/internal/service"
	"github.com/rnkp755/chefcognito/internal/types"
)

func TestListToolsReturnsCatalog(t *testing.T) {
	env := newTestEnv(t, &stubModel{replies: []string{"hi"}})
	token := env.token(t, "u1")

	w := env.request(t, http.MethodGet, "/api/v1/tools", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tools []service.ToolSpec `json:"tools"`
	}
	decodeBody(t, w, &resp)
	assert.Len(t, resp.Tools, 8)
}

func TestCallToolDispatches(t *testing.T) {
	env := newTestEnv(t, &stubModel{replies: []string{"hi"}})
	token := env.token(t, "u1")

	w := env.request(t, http.MethodPost, "/api/v1/tools/call", types.ToolCallRequest{
		Tool: "get_user_preferences",
	}, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp service.ToolResponse
	decodeBody(t, w, &resp)
	assert.True(t, resp.Success)
}

func TestCallToolUnknownName(t *testing.T) {
	env := newTestEnv(t, &stubModel{replies: []string{"hi"}})
	token := env.token(t, "u1")

	w := env.request(t, http.MethodPost, "/api/v1/tools/call", types.ToolCallRequest{
		Tool: "frobnicate",
	}, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp service.ToolResponse
	decodeBody(t, w, &resp)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "frobnicate")
}

func TestCallToolRequiresToolName(t *testing.T) {
	env := newTestEnv(t, &stubModel{replies: []string{"hi"}})
	token := env.token(t, "u1")

	w := env.request(t, http.MethodPost, "/api/v1/tools/call", map[string]interface{}{
		"parameters": map[string]interface{}{},
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
