package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	client "github.com/aretw0/blockloom/pkg/adapters/http"
	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_RequestShape(t *testing.T) {
	var got *http.Request
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","results":[{"object":"block","id":"n1","type":"paragraph","paragraph":{}}],"next_cursor":null,"has_more":false}`))
	}))
	defer srv.Close()

	c := client.NewClient(srv.URL+"/", client.WithToken("tok"), client.WithAPIVersion("2099-01-01"))
	ids, err := c.AppendChildren(context.Background(), "parent-1", []domain.Block{domain.NewParagraph(domain.Text("hi"))})
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, ids)

	assert.Equal(t, http.MethodPatch, got.Method)
	assert.Equal(t, "/v1/blocks/parent-1/children", got.URL.Path)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "2099-01-01", got.Header.Get("X-Api-Version"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))

	var payload map[string][]map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Len(t, payload["children"], 1)
	assert.Equal(t, "paragraph", payload["children"][0]["type"])
}

func TestClient_ListQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "c1", r.URL.Query().Get("start_cursor"))
		assert.Equal(t, "25", r.URL.Query().Get("page_size"))
		_, _ = w.Write([]byte(`{"object":"list","results":[{"object":"block","id":"x","type":"toggle","has_children":true,"toggle":{}}],"next_cursor":"c2","has_more":true}`))
	}))
	defer srv.Close()

	page, err := client.NewClient(srv.URL).ListChildren(context.Background(), "p", "c1", 25)
	require.NoError(t, err)
	require.Len(t, page.Children, 1)
	assert.Equal(t, domain.ChildRef{ID: "x", Kind: domain.KindToggle, HasChildren: true}, page.Children[0])
	assert.Equal(t, "c2", page.NextCursor)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      domain.ErrorCode
		transient bool
	}{
		{"rate limited", 429, `{"object":"error","status":429,"code":"rate_limited","message":"slow"}`, domain.CodeRateLimit, true},
		{"conflict", 409, `{"object":"error","status":409,"code":"conflict_error","message":"retry"}`, domain.CodeConflict, true},
		{"not found", 404, `{"object":"error","status":404,"code":"object_not_found","message":"gone"}`, domain.CodeNotFound, false},
		{"validation", 400, `{"object":"error","status":400,"code":"validation_error","message":"bad"}`, domain.CodeInvalidInput, false},
		{"bad gateway without envelope", 502, `<html>bad gateway</html>`, domain.CodeUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := client.NewClient(srv.URL).ListChildren(context.Background(), "p", "", 0)
			var re *domain.RemoteError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.code, re.Code)
			assert.Equal(t, tt.status, re.Status)
			assert.Equal(t, "list", re.Op)
			assert.Equal(t, tt.transient, retry.IsTransient(err))
		})
	}
}

func TestClient_TransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := client.NewClient(srv.URL, client.WithTimeout(20*time.Millisecond)).ListChildren(context.Background(), "p", "", 0)
	assert.Equal(t, domain.CodeTimeout, domain.CodeOf(err))
	assert.True(t, retry.IsTransient(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.NewClient(srv.URL).ListChildren(ctx, "p", "", 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, retry.IsTransient(err))
}

func TestClient_RetriesThroughPolicy(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"object":"error","status":429,"code":"rate_limited","message":"slow"}`))
			return
		}
		_, _ = w.Write([]byte(`{"object":"list","results":[],"next_cursor":null,"has_more":false}`))
	}))
	defer srv.Close()

	c := client.NewClient(srv.URL)
	attempts, err := retry.Do(context.Background(), retry.NoDelay(5), func(ctx context.Context) error {
		_, err := c.ListChildren(ctx, "p", "", 0)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}
