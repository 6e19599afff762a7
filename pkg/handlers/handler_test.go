package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bear-san/coffee-shop/internal/database"
	"github.com/bear-san/coffee-shop/internal/logger"
	"github.com/bear-san/coffee-shop/internal/metrics"
	"github.com/bear-san/coffee-shop/internal/models"
	"github.com/bear-san/coffee-shop/pkg/auth0"
	"github.com/bear-san/coffee-shop/pkg/handlers"
)

type memoryStore struct {
	mu     sync.Mutex
	nextID int
	drinks map[int]models.Drink
	fail   error
}

func newMemoryStore() *memoryStore {
	s := &memoryStore{nextID: 1, drinks: map[int]models.Drink{}}
	_ = s.Create(context.Background(), &models.Drink{
		Title:  "water",
		Recipe: []models.Ingredient{{Name: "water", Color: "blue", Parts: 1}},
	})
	return s
}

func (s *memoryStore) List(context.Context) ([]*models.Drink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	out := make([]*models.Drink, 0, len(s.drinks))
	for _, d := range s.drinks {
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) Get(_ context.Context, id int) (*models.Drink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drinks[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &d, nil
}

func (s *memoryStore) titleTaken(title string, except int) bool {
	for id, d := range s.drinks {
		if id != except && d.Title == title {
			return true
		}
	}
	return false
}

func (s *memoryStore) Create(_ context.Context, d *models.Drink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.titleTaken(d.Title, 0) {
		return database.ErrDuplicateTitle
	}
	d.ID = s.nextID
	s.nextID++
	s.drinks[d.ID] = *d
	return nil
}

func (s *memoryStore) Update(_ context.Context, d *models.Drink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drinks[d.ID]; !ok {
		return database.ErrNotFound
	}
	if s.titleTaken(d.Title, d.ID) {
		return database.ErrDuplicateTitle
	}
	s.drinks[d.ID] = *d
	return nil
}

func (s *memoryStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drinks[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.drinks, id)
	return nil
}

// tokenVerifier accepts tokens of the form "perm1,perm2"; "expired" fails
// like an expired token and "broken" fails like an unreachable tenant.
type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, raw string) (*auth0.Claims, error) {
	switch raw {
	case "expired":
		return nil, &auth0.AuthError{StatusCode: http.StatusUnauthorized, Code: "token_expired", Description: "Token expired."}
	case "broken":
		return nil, auth0.ErrJWKSUnavailable
	case "none":
		return &auth0.Claims{}, nil
	}
	return &auth0.Claims{Permissions: strings.Split(raw, ",")}, nil
}

const allPermissions = "get:drinks-detail,post:drinks,patch:drinks,delete:drinks"

func setupRouter(t *testing.T) (*gin.Engine, *memoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemoryStore()
	h := handlers.NewHandler(store, logger.NewNop())
	router := handlers.NewRouter(h, handlers.RouterConfig{
		Verifier:       tokenVerifier{},
		Metrics:        metrics.New(),
		Logger:         logger.NewNop(),
		AllowedOrigins: []string{"http://localhost:8100"},
	})
	return router, store
}

func do(t *testing.T, router http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func TestIndexAndLoginResults(t *testing.T) {
	router, _ := setupRouter(t)

	w, resp := do(t, router, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])

	w, resp = do(t, router, http.MethodGet, "/login-results", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp["message"], "logged in")

	w, _ = do(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGetDrinks_PublicShortForm(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/drinks", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"success":true,"drinks":[{"id":1,"title":"water","recipe":[{"color":"blue","parts":1}]}]}`,
		w.Body.String())
}

func TestGetDrinksDetail(t *testing.T) {
	router, _ := setupRouter(t)

	w, resp := do(t, router, http.MethodGet, "/drinks-detail", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "authorization_header_missing", resp["code"])

	w, resp = do(t, router, http.MethodGet, "/drinks-detail", "post:drinks", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "unauthorized", resp["code"])

	w, resp = do(t, router, http.MethodGet, "/drinks-detail", "none", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_claims", resp["code"])

	w, resp = do(t, router, http.MethodGet, "/drinks-detail", "expired", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token_expired", resp["code"])

	w, resp = do(t, router, http.MethodGet, "/drinks-detail", "broken", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", resp["message"])

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/drinks-detail", nil)
	req.Header.Set("Authorization", "Bearer get:drinks-detail")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"success":true,"drinks":[{"id":1,"title":"water","recipe":[{"name":"water","color":"blue","parts":1}]}]}`,
		w.Body.String())
}

func TestCreateDrink(t *testing.T) {
	router, store := setupRouter(t)

	body := map[string]any{
		"title":  "latte",
		"recipe": []map[string]any{{"name": "milk", "color": "white", "parts": 3}, {"name": "coffee", "color": "brown", "parts": 1}},
	}
	w, resp := do(t, router, http.MethodPost, "/drinks", "post:drinks", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, resp["success"])

	drinks := resp["drinks"].([]any)
	require.Len(t, drinks, 1)
	created := drinks[0].(map[string]any)
	assert.Equal(t, "latte", created["title"])
	assert.InDelta(t, 2, created["id"], 0)
	assert.Len(t, store.drinks, 2)
}

func TestCreateDrink_SingleIngredientObject(t *testing.T) {
	router, _ := setupRouter(t)

	body := map[string]any{"title": "espresso", "recipe": map[string]any{"name": "coffee", "color": "brown", "parts": 1}}
	w, _ := do(t, router, http.MethodPost, "/drinks", "post:drinks", body)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCreateDrink_Rejections(t *testing.T) {
	router, _ := setupRouter(t)
	recipe := []map[string]any{{"name": "water", "color": "blue", "parts": 1}}

	tests := []struct {
		name   string
		token  string
		body   any
		status int
	}{
		{"no permission", "patch:drinks", map[string]any{"title": "tea", "recipe": recipe}, http.StatusForbidden},
		{"missing title", "post:drinks", map[string]any{"recipe": recipe}, http.StatusUnprocessableEntity},
		{"missing recipe", "post:drinks", map[string]any{"title": "tea"}, http.StatusUnprocessableEntity},
		{"recipe is a string", "post:drinks", map[string]any{"title": "tea", "recipe": "hot water"}, http.StatusUnprocessableEntity},
		{"duplicate title", "post:drinks", map[string]any{"title": "water", "recipe": recipe}, http.StatusUnprocessableEntity},
		{"not json", "post:drinks", "just a string", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := do(t, router, http.MethodPost, "/drinks", tt.token, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, false, resp["success"])
			assert.InDelta(t, tt.status, resp["error"], 0)
		})
	}
}

func TestUpdateDrink(t *testing.T) {
	router, store := setupRouter(t)

	w, resp := do(t, router, http.MethodPatch, "/drinks/1", "patch:drinks", map[string]any{"title": "sparkling water"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := resp["drinks"].([]any)[0].(map[string]any)
	assert.Equal(t, "sparkling water", updated["title"])
	assert.Equal(t, "water", store.drinks[1].Recipe[0].Name, "recipe kept on partial update")

	w, _ = do(t, router, http.MethodPatch, "/drinks/99", "patch:drinks", map[string]any{"title": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = do(t, router, http.MethodPatch, "/drinks/abc", "patch:drinks", map[string]any{"title": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "resource not found", resp["message"])

	w, _ = do(t, router, http.MethodPatch, "/drinks/1", "patch:drinks", map[string]any{"title": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = do(t, router, http.MethodPatch, "/drinks/1", "post:drinks", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteDrink(t *testing.T) {
	router, store := setupRouter(t)

	w, resp := do(t, router, http.MethodDelete, "/drinks/1", allPermissions, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 1, resp["delete"], 0)
	assert.Empty(t, store.drinks)

	w, _ = do(t, router, http.MethodDelete, "/drinks/1", allPermissions, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoreFailure(t *testing.T) {
	router, store := setupRouter(t)
	store.fail = errors.New("disk on fire")

	w, resp := do(t, router, http.MethodGet, "/drinks", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", resp["message"])
}

func TestNoRouteAndNoMethod(t *testing.T) {
	router, _ := setupRouter(t)

	w, resp := do(t, router, http.MethodGet, "/coffee-beans", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "resource not found", resp["message"])

	w, resp = do(t, router, http.MethodPut, "/drinks", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "method not allowed", resp["message"])
}

func TestCORSPreflight(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/drinks", nil)
	req.Header.Set("Origin", "http://localhost:8100")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:8100", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/drinks", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestClaimsFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", handlers.RequiresAuth(tokenVerifier{}, "get:drinks-detail", logger.NewNop()), func(c *gin.Context) {
		claims, ok := handlers.ClaimsFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"permissions": claims.Permissions})
	})

	w, resp := do(t, router, http.MethodGet, "/me", "get:drinks-detail", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"get:drinks-detail"}, resp["permissions"])
}
