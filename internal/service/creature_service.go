package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/char-projects/PokeAPI/internal/model"
	"github.com/char-projects/PokeAPI/internal/storage"
)

// CreatureStore is the slice of the datastore the collection feature needs.
type CreatureStore interface {
	List(ctx context.Context) ([]model.Creature, error)
	FindByID(ctx context.Context, id string) (model.Creature, error)
	Create(ctx context.Context, c model.Creature) error
	SetImageURL(ctx context.Context, id string, imageURL string) error
}

type CreatureService struct {
	creatures CreatureStore
	images    *storage.Storage
}

func NewCreatureService(creatures CreatureStore, images *storage.Storage) *CreatureService {
	return &CreatureService{creatures: creatures, images: images}
}

func (s *CreatureService) List(ctx context.Context) ([]model.Creature, error) {
	return s.creatures.List(ctx)
}

func (s *CreatureService) Create(ctx context.Context, owner string, req model.CreateCreatureRequest) (model.Creature, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 100 {
		return model.Creature{}, model.ErrInvalidInput
	}
	if len(req.Description) > 2000 {
		return model.Creature{}, model.ErrInvalidInput
	}

	creature := model.Creature{
		ID:          uuid.NewString(),
		Owner:       owner,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		ImageURL:    strings.TrimSpace(req.ImageURL),
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.creatures.Create(ctx, creature); err != nil {
		return model.Creature{}, err
	}

	return creature, nil
}

// AttachImage stores image bytes in the owner's namespace and points the
// creature's image_url at the serving endpoint. Only the owner may attach.
func (s *CreatureService) AttachImage(ctx context.Context, owner string, creatureID string, data []byte) (model.Creature, error) {
	creature, err := s.creatures.FindByID(ctx, creatureID)
	if err != nil {
		return model.Creature{}, err
	}
	if creature.Owner != owner {
		return model.Creature{}, model.ErrCreatureNotFound
	}

	if err := s.images.SaveImage(owner, creatureID, data); err != nil {
		return model.Creature{}, err
	}

	imageURL := "/api/pokemons/" + creatureID + "/image"
	if err := s.creatures.SetImageURL(ctx, creatureID, imageURL); err != nil {
		return model.Creature{}, err
	}

	creature.ImageURL = imageURL
	return creature, nil
}

// Image returns the stored image for a creature, optionally downscaled.
func (s *CreatureService) Image(ctx context.Context, creatureID string, thumb bool) ([]byte, error) {
	creature, err := s.creatures.FindByID(ctx, creatureID)
	if err != nil {
		return nil, err
	}

	if thumb {
		return s.images.Thumbnail(creature.Owner, creature.ID, 128)
	}
	return s.images.ReadImage(creature.Owner, creature.ID)
}
