package buildcache

import "time"

type Config struct {
	// TTL expires entries; zero keeps them until purged.
	TTL time.Duration
}
