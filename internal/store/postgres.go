package store

import (
	"context"

	"github.com/rs/zerolog"

	"donorhub/internal/domain"
	"donorhub/internal/infra"
	"donorhub/internal/sqlinline"
)

// PostgresStore persists the directory in a Postgres database reached
// through a SQLExecutor, usually the logging runner over a pgx pool.
type PostgresStore struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
	close  func()
}

// NewPostgresStore wraps an executor. closeFn may be nil; when set it
// releases the underlying pool once the store is discarded.
func NewPostgresStore(sql infra.SQLExecutor, logger zerolog.Logger, closeFn func()) *PostgresStore {
	return &PostgresStore{sql: sql, logger: logger, close: closeFn}
}

func (s *PostgresStore) FetchDonors(ctx context.Context) ([]domain.Donor, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectPeople)
	if err != nil {
		return nil, remoteErr("postgres", "fetch donors", err)
	}
	defer rows.Close()

	donors := []domain.Donor{}
	for rows.Next() {
		var r PersonRow
		if err := rows.Scan(&r.ID, &r.Name, &r.PhoneNumber, &r.BloodGroup,
			&r.LastDonationDate, &r.GroupIDs, &r.Notes, &r.Location); err != nil {
			return nil, remoteErr("postgres", "scan donor", err)
		}
		d, err := r.Donor()
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping unreadable person row")
			continue
		}
		donors = append(donors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, remoteErr("postgres", "fetch donors", err)
	}
	return donors, nil
}

func (s *PostgresStore) FetchGroups(ctx context.Context) ([]domain.Group, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectGroups)
	if err != nil {
		return nil, remoteErr("postgres", "fetch groups", err)
	}
	defer rows.Close()

	groups := []domain.Group{}
	for rows.Next() {
		var r GroupRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Color); err != nil {
			return nil, remoteErr("postgres", "scan group", err)
		}
		groups = append(groups, r.Group())
	}
	if err := rows.Err(); err != nil {
		return nil, remoteErr("postgres", "fetch groups", err)
	}
	return groups, nil
}

func (s *PostgresStore) SaveDonor(ctx context.Context, d domain.Donor) error {
	r := PersonRowFrom(d)
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertPerson,
		r.ID, r.Name, r.PhoneNumber, r.BloodGroup, r.LastDonationDate, r.GroupIDs, r.Notes, r.Location)
	return remoteErr("postgres", "save donor", err)
}

func (s *PostgresStore) DeleteDonor(ctx context.Context, id string) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeletePerson, id)
	return remoteErr("postgres", "delete donor", err)
}

func (s *PostgresStore) SaveGroup(ctx context.Context, g domain.Group) error {
	r := GroupRowFrom(g)
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertGroup, r.ID, r.Name, r.Color)
	return remoteErr("postgres", "save group", err)
}

// DeleteGroup scrubs memberships first so a failure between the two
// statements can never leave donors pointing at a missing group.
func (s *PostgresStore) DeleteGroup(ctx context.Context, id string) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QScrubGroupMembership, id); err != nil {
		return remoteErr("postgres", "scrub group members", err)
	}
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteGroup, id)
	return remoteErr("postgres", "delete group", err)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	var one int
	if err := s.sql.QueryRow(ctx, sqlinline.QPing).Scan(&one); err != nil {
		return remoteErr("postgres", "ping", err)
	}
	return nil
}

func (s *PostgresStore) Kind() string { return "postgres" }

// Close releases the underlying pool, if any.
func (s *PostgresStore) Close() {
	if s.close != nil {
		s.close()
	}
}

var _ domain.Store = (*PostgresStore)(nil)
