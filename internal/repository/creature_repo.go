package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/char-projects/PokeAPI/internal/model"
)

type CreatureRepository struct {
	pool *pgxpool.Pool
}

func NewCreatureRepository(pool *pgxpool.Pool) *CreatureRepository {
	return &CreatureRepository{pool: pool}
}

func (r *CreatureRepository) List(ctx context.Context) ([]model.Creature, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner, name, description, image_url, created_at
		 FROM creatures ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list creatures: %w", err)
	}
	defer rows.Close()

	creatures := make([]model.Creature, 0)
	for rows.Next() {
		var c model.Creature
		if err := rows.Scan(&c.ID, &c.Owner, &c.Name, &c.Description, &c.ImageURL, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan creature: %w", err)
		}
		creatures = append(creatures, c)
	}
	return creatures, rows.Err()
}

func (r *CreatureRepository) FindByID(ctx context.Context, id string) (model.Creature, error) {
	var c model.Creature
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner, name, description, image_url, created_at
		 FROM creatures WHERE id = $1`, id).
		Scan(&c.ID, &c.Owner, &c.Name, &c.Description, &c.ImageURL, &c.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Creature{}, model.ErrCreatureNotFound
	}
	if err != nil {
		return model.Creature{}, fmt.Errorf("find creature by id: %w", err)
	}
	return c, nil
}

func (r *CreatureRepository) Create(ctx context.Context, c model.Creature) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO creatures (id, owner, name, description, image_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Owner, c.Name, c.Description, c.ImageURL, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create creature: %w", err)
	}
	return nil
}

func (r *CreatureRepository) SetImageURL(ctx context.Context, id string, imageURL string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE creatures SET image_url = $2 WHERE id = $1`, id, imageURL)
	if err != nil {
		return fmt.Errorf("set creature image url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCreatureNotFound
	}
	return nil
}
