package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/char-projects/PokeAPI/internal/model"
	"github.com/char-projects/PokeAPI/internal/storage"
)

type fakeCreatureStore struct {
	mu        sync.Mutex
	creatures map[string]model.Creature
	order     []string
}

func newFakeCreatureStore() *fakeCreatureStore {
	return &fakeCreatureStore{creatures: make(map[string]model.Creature)}
}

func (s *fakeCreatureStore) List(_ context.Context) ([]model.Creature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Creature, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.creatures[id])
	}
	return out, nil
}

func (s *fakeCreatureStore) FindByID(_ context.Context, id string) (model.Creature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creatures[id]
	if !ok {
		return model.Creature{}, model.ErrCreatureNotFound
	}
	return c, nil
}

func (s *fakeCreatureStore) Create(_ context.Context, c model.Creature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creatures[c.ID] = c
	s.order = append(s.order, c.ID)
	return nil
}

func (s *fakeCreatureStore) SetImageURL(_ context.Context, id string, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creatures[id]
	if !ok {
		return model.ErrCreatureNotFound
	}
	c.ImageURL = imageURL
	s.creatures[id] = c
	return nil
}

func newTestCreatureService(t *testing.T) (*CreatureService, *fakeCreatureStore) {
	t.Helper()
	images, err := storage.New(t.TempDir())
	require.NoError(t, err)
	store := newFakeCreatureStore()
	return NewCreatureService(store, images), store
}

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestCreatureCreateAndList(t *testing.T) {
	svc, _ := newTestCreatureService(t)

	created, err := svc.Create(context.Background(), "alice", model.CreateCreatureRequest{
		Name:        "  Sparkmander  ",
		Description: "small, flammable",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Owner)
	assert.Equal(t, "Sparkmander", created.Name)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestCreatureCreateValidation(t *testing.T) {
	svc, _ := newTestCreatureService(t)

	_, err := svc.Create(context.Background(), "alice", model.CreateCreatureRequest{Name: "   "})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Create(context.Background(), "alice", model.CreateCreatureRequest{Name: strings.Repeat("x", 101)})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Create(context.Background(), "alice", model.CreateCreatureRequest{
		Name:        "ok",
		Description: strings.Repeat("x", 2001),
	})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestAttachImageOwnerOnly(t *testing.T) {
	svc, _ := newTestCreatureService(t)

	created, err := svc.Create(context.Background(), "alice", model.CreateCreatureRequest{Name: "Sparkmander"})
	require.NoError(t, err)

	img := encodeTestPNG(t, 8, 8)

	_, err = svc.AttachImage(context.Background(), "mallory", created.ID, img)
	assert.ErrorIs(t, err, model.ErrCreatureNotFound)

	updated, err := svc.AttachImage(context.Background(), "alice", created.ID, img)
	require.NoError(t, err)
	assert.Equal(t, "/api/pokemons/"+created.ID+"/image", updated.ImageURL)

	stored, err := svc.Image(context.Background(), created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, img, stored)
}

func TestImageThumbnailDownscales(t *testing.T) {
	svc, _ := newTestCreatureService(t)

	created, err := svc.Create(context.Background(), "alice", model.CreateCreatureRequest{Name: "Sparkmander"})
	require.NoError(t, err)

	_, err = svc.AttachImage(context.Background(), "alice", created.ID, encodeTestPNG(t, 512, 256))
	require.NoError(t, err)

	thumb, err := svc.Image(context.Background(), created.ID, true)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 128, decoded.Bounds().Dx())
	assert.Equal(t, 64, decoded.Bounds().Dy())
}

func TestImageMissing(t *testing.T) {
	svc, _ := newTestCreatureService(t)

	created, err := svc.Create(context.Background(), "alice", model.CreateCreatureRequest{Name: "Sparkmander"})
	require.NoError(t, err)

	_, err = svc.Image(context.Background(), created.ID, false)
	assert.ErrorIs(t, err, model.ErrImageNotFound)

	_, err = svc.Image(context.Background(), "no-such-id", false)
	assert.ErrorIs(t, err, model.ErrCreatureNotFound)
}
