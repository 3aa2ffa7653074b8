package cache

import (
	"time"

	"github.com/google/uuid"
)

// Query selects the workspace whose cache is used.
type Query struct {
	Dir  string `query:"dir"  validate:"required"`
	Home string `query:"home"`
}

type NamespaceResponse struct {
	Repository string `json:"repository"`
	Flag       string `json:"flag"`
	Revision   string `json:"revision"`
}

// EntryResponse represents a cache entry.
type EntryResponse struct {
	ID        uuid.UUID         `json:"id"`
	Namespace NamespaceResponse `json:"namespace"`
	Key       string            `json:"key"`
	Value     []byte            `json:"value,omitempty"`
	Size      int               `json:"size"`
	CreatedAt time.Time         `json:"created_at"`
}

type PurgeResponse struct {
	Removed int `json:"removed"`
}
