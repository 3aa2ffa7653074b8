package badgerfx

// Entity is a value stored under its own key.
type Entity interface {
	StorageKey() string
	MarshalStorage() ([]byte, error)
	UnmarshalStorage(data []byte) error
}
