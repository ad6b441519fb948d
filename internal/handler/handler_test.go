package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/recipe"
	"github.com/dukerupert/larder/internal/sharing"
	"github.com/dukerupert/larder/internal/store"
)

type pantryEvent struct {
	owner, action, id string
}

type recordingNotifier struct {
	mu            sync.Mutex
	pantry        []pantryEvent
	contributions []string
}

func (n *recordingNotifier) PantryChanged(ownerID, action, itemID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pantry = append(n.pantry, pantryEvent{ownerID, action, itemID})
}

func (n *recordingNotifier) ContributionChanged(action, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contributions = append(n.contributions, action)
}

type fakeGenerator struct {
	got    []string
	result *recipe.Generated
	err    error
}

func (g *fakeGenerator) Generate(ctx context.Context, ingredients []string) (*recipe.Generated, error) {
	g.got = ingredients
	return g.result, g.err
}

type testEnv struct {
	db            *sql.DB
	notifier      *recordingNotifier
	pantry        *PantryHandler
	contributions *ContributionHandler
	recipes       *RecipeHandler
	generator     *fakeGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := &recordingNotifier{}
	svc := sharing.NewService(db, logger, sharing.WithNotifier(n))
	ps := store.NewPantryStore(db)
	gen := &fakeGenerator{}

	return &testEnv{
		db:            db,
		notifier:      n,
		pantry:        NewPantryHandler(ps, svc, n, logger),
		contributions: NewContributionHandler(store.NewContributionStore(db), svc, logger),
		recipes:       NewRecipeHandler(gen, ps, store.NewRecipeStore(db), logger),
		generator:     gen,
	}
}

// serve routes a single request through a mux registered with pattern so
// path values resolve, acting as user when non-empty.
func serve(t *testing.T, pattern string, h http.HandlerFunc, method, target, user string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			reader = bytes.NewBufferString(s)
		} else {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: user}))
	}

	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}
