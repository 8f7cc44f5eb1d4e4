package health

import "context"

// DBPinger checks history store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SourceLister reports the registered search source ids.
type SourceLister interface {
	IDs() []string
}
