package infra_postgres_feature

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/humanbelnik/pokerboard/internal/model"
	usecase_feature "github.com/humanbelnik/pokerboard/internal/usecase/feature"
	"github.com/jmoiron/sqlx"
)

type Driver struct {
	db *sqlx.DB
}

func New(
	db *sqlx.DB,
) *Driver {
	return &Driver{db: db}
}

type featureDTO struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Votes     int       `db:"votes"`
	CreatedAt time.Time `db:"created_at"`
}

func (dto featureDTO) toModel() model.Feature {
	return model.Feature{
		ID:        dto.ID,
		Name:      dto.Name,
		Votes:     dto.Votes,
		CreatedAt: dto.CreatedAt,
	}
}

func (d *Driver) Create(ctx context.Context, f model.Feature) error {
	query := `
		INSERT INTO features (id, name, votes, created_at)
		VALUES (:id, :name, :votes, :created_at)
	`

	_, err := d.db.NamedExecContext(ctx, query, featureDTO{
		ID:        f.ID,
		Name:      f.Name,
		Votes:     f.Votes,
		CreatedAt: f.CreatedAt,
	})
	return err
}

func (d *Driver) List(ctx context.Context) ([]model.Feature, error) {
	var dtos []featureDTO

	query := `
		SELECT id, name, votes, created_at
		FROM features
		ORDER BY votes DESC, created_at
	`

	if err := d.db.SelectContext(ctx, &dtos, query); err != nil {
		return nil, err
	}

	features := make([]model.Feature, 0, len(dtos))
	for _, dto := range dtos {
		features = append(features, dto.toModel())
	}
	return features, nil
}

func (d *Driver) AddVotes(ctx context.Context, id uuid.UUID, delta int) (model.Feature, error) {
	var dto featureDTO

	query := `
		UPDATE features
		SET votes = votes + $2
		WHERE id = $1
		RETURNING id, name, votes, created_at
	`

	if err := d.db.GetContext(ctx, &dto, query, id, delta); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Feature{}, usecase_feature.ErrNotFound
		}
		return model.Feature{}, err
	}
	return dto.toModel(), nil
}
