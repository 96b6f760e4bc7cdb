package domain

import "context"

// Store is the persistence gateway behind the sync controller. Local
// and remote backends expose the identical surface so callers never
// branch on where the data lives.
type Store interface {
	FetchDonors(ctx context.Context) ([]Donor, error)
	FetchGroups(ctx context.Context) ([]Group, error)
	// SaveDonor upserts by donor ID.
	SaveDonor(ctx context.Context, d Donor) error
	DeleteDonor(ctx context.Context, id string) error
	// SaveGroup upserts by group ID.
	SaveGroup(ctx context.Context, g Group) error
	// DeleteGroup removes the group and scrubs its ID from every
	// donor's membership list before the group row disappears.
	DeleteGroup(ctx context.Context, id string) error
	// Ping verifies the backend is reachable with the configured
	// credentials.
	Ping(ctx context.Context) error
	// Kind identifies the backend ("local", "postgres" or "rest").
	Kind() string
}
