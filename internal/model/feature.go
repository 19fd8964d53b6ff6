package model

import (
	"time"

	"github.com/google/uuid"
)

// Feature is an entry of the feature-request widget, ranked by raw score.
type Feature struct {
	ID        uuid.UUID
	Name      string
	Votes     int
	CreatedAt time.Time
}
