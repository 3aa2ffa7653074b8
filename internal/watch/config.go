package watch

import "time"

type Config struct {
	// Debounce is the quiet period after the last filesystem event before the workspace is re-evaluated.
	Debounce time.Duration
}
