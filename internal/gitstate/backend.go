package gitstate

import "fmt"

// NewBackend creates the backend selected by config.
func NewBackend(config Config) (Backend, error) {
	switch config.Backend {
	case "", BackendNative:
		return NewNativeBackend(), nil
	case BackendExec:
		return NewExecBackend(config.Binary), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, config.Backend)
	}
}
