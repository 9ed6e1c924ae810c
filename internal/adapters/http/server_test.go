package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sandbox "github.com/aretw0/blockloom/internal/adapters/http"
	client "github.com/aretw0/blockloom/pkg/adapters/http"
	"github.com/aretw0/blockloom/pkg/adapters/memory"
	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/ports"
	"github.com/aretw0/blockloom/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandbox_Contract(t *testing.T) {
	store := memory.NewStore()
	srv := httptest.NewServer(sandbox.NewHandler(store, sandbox.WithToken("secret")))
	defer srv.Close()

	c := client.NewClient(srv.URL, client.WithToken("secret"))
	ports.RunBlockStoreContract(t, c, store.CreateRoot())
}

func TestGetHealth(t *testing.T) {
	handler := sandbox.NewHandler(memory.NewStore())

	req, _ := http.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	handler := sandbox.NewHandler(memory.NewStore(), sandbox.WithVersion("1.2.3"))

	req, _ := http.NewRequest("GET", "/info", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "blockloom-sandbox", resp["app"])
	assert.Equal(t, "1.2.3", resp["version"])
}

func TestAuthentication(t *testing.T) {
	store := memory.NewStore()
	root := store.CreateRoot()
	handler := sandbox.NewHandler(store, sandbox.WithToken("secret"))

	req, _ := http.NewRequest("GET", "/v1/blocks/"+root+"/children", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	var env schema.Error
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "error", env.Object)
	assert.Equal(t, "unauthorized", env.Code)
}

func TestAppendChildren_Envelopes(t *testing.T) {
	store := memory.NewStore()
	root := store.CreateRoot()
	handler := sandbox.NewHandler(store)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"children":`, http.StatusBadRequest, "validation_error"},
		{"unknown block type", `{"children":[{"object":"block","type":"synced_block","synced_block":{}}]}`, http.StatusBadRequest, "validation_error"},
		{"leaf with children", `{"children":[{"type":"divider","divider":{"children":[{"type":"divider","divider":{}}]}}]}`, http.StatusBadRequest, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("PATCH", "/v1/blocks/"+root+"/children", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			var env schema.Error
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, tt.status, env.Status)
		})
	}

	req, _ := http.NewRequest("PATCH", "/v1/blocks/"+root+"/children",
		strings.NewReader(`{"children":[{"type":"toggle","toggle":{"rich_text":[],"children":[{"type":"paragraph","paragraph":{"rich_text":[]}}]}}]}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var list schema.List
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Results, 1)
	assert.Equal(t, "toggle", list.Results[0].Type)
	assert.True(t, list.Results[0].HasChildren)
	assert.False(t, list.HasMore)

	snap, err := store.Snapshot(root)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, domain.KindToggle, snap[0].Kind())
}

func TestListChildren_BadPageSize(t *testing.T) {
	store := memory.NewStore()
	handler := sandbox.NewHandler(store)

	req, _ := http.NewRequest("GET", "/v1/blocks/"+store.CreateRoot()+"/children?page_size=abc", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
