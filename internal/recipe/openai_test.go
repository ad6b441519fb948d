package recipe

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCompletionServer(t *testing.T, status int, content string, gotReq *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if gotReq != nil {
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, gotReq)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  DefaultModel,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGenerator(t *testing.T, url string) *Generator {
	t.Helper()
	g, err := NewGenerator(Config{APIKey: "sk-test", BaseURL: url + "/v1"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return g
}

func TestGenerate(t *testing.T) {
	var req map[string]any
	srv := fakeCompletionServer(t, http.StatusOK,
		`{"name":"Omelette","ingredients":["2 eggs"],"instructions":["Whisk","Fry"],"cookingTime":"10 minutes"}`, &req)

	g := newTestGenerator(t, srv.URL)
	out, err := g.Generate(t.Context(), []string{"2 pieces Eggs", " "})
	require.NoError(t, err)

	assert.Equal(t, "Omelette", out.Name)
	assert.Equal(t, []string{"Whisk", "Fry"}, out.Instructions)

	assert.Equal(t, DefaultModel, req["model"])
	assert.InDelta(t, 0.7, req["temperature"], 0.001)
	format, _ := req["response_format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
	msgs, _ := req["messages"].([]any)
	require.Len(t, msgs, 2)
	user, _ := msgs[1].(map[string]any)
	assert.Contains(t, user["content"], "2 pieces Eggs")
}

func TestGenerateFallback(t *testing.T) {
	srv := fakeCompletionServer(t, http.StatusOK, "Just scramble them.", nil)

	g := newTestGenerator(t, srv.URL)
	out, err := g.Generate(t.Context(), []string{"Eggs"})
	require.NoError(t, err)
	assert.Equal(t, FallbackName, out.Name)
	assert.Equal(t, []string{"Eggs"}, out.Ingredients)
	assert.Equal(t, []string{"Just scramble them."}, out.Instructions)
}

func TestGenerateUpstreamError(t *testing.T) {
	srv := fakeCompletionServer(t, http.StatusInternalServerError, "", nil)

	g := newTestGenerator(t, srv.URL)
	_, err := g.Generate(t.Context(), []string{"Eggs"})
	assert.Error(t, err)
}

func TestGenerateNoIngredients(t *testing.T) {
	g := newTestGenerator(t, "http://127.0.0.1:0")
	_, err := g.Generate(t.Context(), []string{"", "  "})
	assert.ErrorIs(t, err, ErrNoIngredients)
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	_, err := NewGenerator(Config{}, slog.Default())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
