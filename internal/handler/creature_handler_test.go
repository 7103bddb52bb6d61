package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/char-projects/PokeAPI/internal/middleware"
	"github.com/char-projects/PokeAPI/internal/model"
	"github.com/char-projects/PokeAPI/internal/service"
	"github.com/char-projects/PokeAPI/internal/storage"
	"github.com/char-projects/PokeAPI/internal/token"
)

type memCreatureStore struct {
	creatures map[string]model.Creature
	order     []string
}

func newMemCreatureStore() *memCreatureStore {
	return &memCreatureStore{creatures: make(map[string]model.Creature)}
}

func (s *memCreatureStore) List(_ context.Context) ([]model.Creature, error) {
	out := make([]model.Creature, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.creatures[id])
	}
	return out, nil
}

func (s *memCreatureStore) FindByID(_ context.Context, id string) (model.Creature, error) {
	c, ok := s.creatures[id]
	if !ok {
		return model.Creature{}, model.ErrCreatureNotFound
	}
	return c, nil
}

func (s *memCreatureStore) Create(_ context.Context, c model.Creature) error {
	s.creatures[c.ID] = c
	s.order = append(s.order, c.ID)
	return nil
}

func (s *memCreatureStore) SetImageURL(_ context.Context, id string, imageURL string) error {
	c, ok := s.creatures[id]
	if !ok {
		return model.ErrCreatureNotFound
	}
	c.ImageURL = imageURL
	s.creatures[id] = c
	return nil
}

type creatureTestEnv struct {
	router      http.Handler
	authService *service.AuthService
}

func newCreatureTestEnv(t *testing.T) *creatureTestEnv {
	t.Helper()

	codec, err := token.NewCodec("test-secret", time.Hour)
	require.NoError(t, err)
	authService := service.NewAuthService(newMemUserStore(), codec, "password")
	gate := middleware.NewAuthMiddleware(authService)

	images, err := storage.New(t.TempDir())
	require.NoError(t, err)
	h := NewCreatureHandler(service.NewCreatureService(newMemCreatureStore(), images))

	r := chi.NewRouter()
	r.Get("/api/pokemons", h.List)
	r.With(gate.RequireAuth).Post("/api/pokemons", h.Create)
	r.With(gate.RequireAuth).Post("/api/pokemons/{id}/image", h.AttachImage)
	r.Get("/api/pokemons/{id}/image", h.Image)

	return &creatureTestEnv{router: r, authService: authService}
}

func (e *creatureTestEnv) sessionFor(t *testing.T, username string) string {
	t.Helper()
	tr, err := e.authService.IssueSession(username)
	require.NoError(t, err)
	return tr.AccessToken
}

func (e *creatureTestEnv) do(t *testing.T, method, target, bearer string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *creatureTestEnv) createCreature(t *testing.T, bearer, name string) model.Creature {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/pokemons", bearer, `{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data model.Creature `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

func TestCreatureListIsPublic(t *testing.T) {
	env := newCreatureTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/pokemons", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestCreatureCreateRequiresAuth(t *testing.T) {
	env := newCreatureTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/pokemons", "", `{"name":"Sparkmander"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatureCreateAndList(t *testing.T) {
	env := newCreatureTestEnv(t)
	bearer := env.sessionFor(t, "alice")

	created := env.createCreature(t, bearer, "Sparkmander")
	assert.Equal(t, "alice", created.Owner)
	assert.Equal(t, "Sparkmander", created.Name)

	rec := env.do(t, http.MethodGet, "/api/pokemons", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)
}

func TestAttachAndServeImage(t *testing.T) {
	env := newCreatureTestEnv(t)
	bearer := env.sessionFor(t, "alice")
	created := env.createCreature(t, bearer, "Sparkmander")

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 300, 300))))
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	rec := env.do(t, http.MethodPost, "/api/pokemons/"+created.ID+"/image", bearer,
		`{"image":"`+encoded+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/pokemons/"+created.ID+"/image")

	rec = env.do(t, http.MethodGet, "/api/pokemons/"+created.ID+"/image", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, buf.Bytes(), rec.Body.Bytes())

	rec = env.do(t, http.MethodGet, "/api/pokemons/"+created.ID+"/image?thumb=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	thumb, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.LessOrEqual(t, thumb.Bounds().Dx(), 128)
}

func TestAttachImageOwnershipEnforced(t *testing.T) {
	env := newCreatureTestEnv(t)
	alice := env.sessionFor(t, "alice")
	mallory := env.sessionFor(t, "mallory")
	created := env.createCreature(t, alice, "Sparkmander")

	encoded := base64.StdEncoding.EncodeToString([]byte("fake-png"))
	rec := env.do(t, http.MethodPost, "/api/pokemons/"+created.ID+"/image", mallory,
		`{"image":"`+encoded+`"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestAttachImageRejectsBadBase64(t *testing.T) {
	env := newCreatureTestEnv(t)
	bearer := env.sessionFor(t, "alice")
	created := env.createCreature(t, bearer, "Sparkmander")

	rec := env.do(t, http.MethodPost, "/api/pokemons/"+created.ID+"/image", bearer,
		`{"image":"%%%not-base64%%%"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImageUnknownCreature(t *testing.T) {
	env := newCreatureTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/pokemons/nope/image", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
