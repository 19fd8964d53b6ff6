package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID        uuid.UUID
	BoardCode BoardCode
	Text      string
	PostedAt  time.Time
	// Append sequence; messages of one board are ordered by it.
	Seq int64
	// Carried for clients, never interpreted server-side.
	Read bool
}
