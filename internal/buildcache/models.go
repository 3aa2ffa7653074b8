package buildcache

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/apiarycd/gitstate/pkg/badgerfx"
	"github.com/google/uuid"
)

const (
	prefix      = "cache:"
	prefixEntry = prefix + "entry:"
)

type entryModel struct {
	ID         uuid.UUID `json:"id"`
	Repository string    `json:"repository"`
	Flag       string    `json:"flag"`
	Revision   string    `json:"revision"`
	Key        string    `json:"key"`
	Value      []byte    `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
}

func newEntryModel(ns Namespace, key string, value []byte) *entryModel {
	return &entryModel{
		ID:         uuid.New(),
		Repository: ns.Repository,
		Flag:       ns.Flag,
		Revision:   ns.Revision,
		Key:        key,
		Value:      value,
		CreatedAt:  time.Now(),
	}
}

func newEntry(m *entryModel) *Entry {
	return &Entry{
		ID: m.ID,
		Namespace: Namespace{
			Repository: m.Repository,
			Flag:       m.Flag,
			Revision:   m.Revision,
		},
		Key:       m.Key,
		Value:     m.Value,
		CreatedAt: m.CreatedAt,
	}
}

// StorageKey implements badgerfx.Entity.
func (m *entryModel) StorageKey() string {
	return entryKey(Namespace{Repository: m.Repository, Flag: m.Flag, Revision: m.Revision}, m.Key)
}

// MarshalStorage implements badgerfx.Entity.
func (m *entryModel) MarshalStorage() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalStorage implements badgerfx.Entity.
func (m *entryModel) UnmarshalStorage(data []byte) error {
	return json.Unmarshal(data, m)
}

var _ badgerfx.Entity = (*entryModel)(nil)

// repositoryPrefix covers every entry of a repository.
func repositoryPrefix(repository string) string {
	return prefixEntry + url.QueryEscape(repository) + ":"
}

func entryKey(ns Namespace, key string) string {
	return repositoryPrefix(ns.Repository) +
		url.QueryEscape(ns.Flag) + ":" +
		url.QueryEscape(ns.Revision) + ":" +
		url.QueryEscape(key)
}
