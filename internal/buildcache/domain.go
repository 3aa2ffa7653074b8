package buildcache

import (
	"time"

	"github.com/google/uuid"
)

// Namespace scopes entries to a repository state.
type Namespace struct {
	Repository string `json:"repository"`
	Flag       string `json:"flag"`
	Revision   string `json:"revision"`
}

type Entry struct {
	ID        uuid.UUID `json:"id"`
	Namespace Namespace `json:"namespace"`
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
