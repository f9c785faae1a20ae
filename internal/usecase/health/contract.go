package health

import "context"

// DBPinger checks storage availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether an index is loaded.
type IndexChecker interface {
	Ready() bool
}
