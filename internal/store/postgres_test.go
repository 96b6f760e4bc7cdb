package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donorhub/internal/domain"
	"donorhub/internal/sqlinline"
)

type execCall struct {
	query string
	args  []any
}

// fakeSQL satisfies infra.SQLExecutor with canned rows and a call log.
type fakeSQL struct {
	people  [][]any
	groups  [][]any
	execs   []execCall
	execErr error
	pingErr error
}

func (f *fakeSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{query: query, args: args})
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeSQL) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	return scanRow{err: f.pingErr}
}

func (f *fakeSQL) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	switch query {
	case sqlinline.QSelectPeople:
		return &fakeRows{values: f.people}, nil
	case sqlinline.QSelectGroups:
		return &fakeRows{values: f.groups}, nil
	}
	return nil, fmt.Errorf("unexpected query: %s", query)
}

type scanRow struct {
	err error
}

func (r scanRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 1 {
		if v, ok := dest[0].(*int); ok {
			*v = 1
		}
	}
	return nil
}

// fakeRows walks positional values and assigns them to scan targets.
type fakeRows struct {
	rowsBase
	values [][]any
	idx    int
}

func (f *fakeRows) Next() bool {
	if f.idx >= len(f.values) {
		return false
	}
	f.idx++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	if f.idx == 0 || f.idx > len(f.values) {
		return pgx.ErrNoRows
	}
	row := f.values[f.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan arity %d, want %d", len(dest), len(row))
	}
	for i, val := range row {
		switch target := dest[i].(type) {
		case *string:
			*target = val.(string)
		case **int64:
			if val == nil {
				*target = nil
			} else {
				v := val.(int64)
				*target = &v
			}
		case *[]string:
			*target = val.([]string)
		default:
			return fmt.Errorf("unsupported scan target %T", dest[i])
		}
	}
	return nil
}

func (f *fakeRows) Close()     {}
func (f *fakeRows) Err() error { return nil }

// rowsBase fills the pgx.Rows surface the tests never touch.
type rowsBase struct{}

func (rowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (rowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (rowsBase) Values() ([]any, error) { return nil, errors.New("not supported") }

func (rowsBase) RawValues() [][]byte { return nil }

func (rowsBase) Conn() *pgx.Conn { return nil }

func personValues(id, name, phone, blood string, last *int64, groups []string) []any {
	var lastVal any
	if last != nil {
		lastVal = *last
	}
	return []any{id, name, phone, blood, lastVal, groups, "", ""}
}

func TestPostgresFetchDonors(t *testing.T) {
	last := int64(1715000000000)
	fake := &fakeSQL{people: [][]any{
		personValues("d1", "Ana", "+385 91 555 666", "O+", &last, []string{"g1"}),
		personValues("d2", "Bo", "", "AB-", nil, []string{}),
	}}
	s := NewPostgresStore(fake, zerolog.Nop(), nil)

	donors, err := s.FetchDonors(context.Background())
	require.NoError(t, err)
	require.Len(t, donors, 2)
	assert.Equal(t, domain.BloodOPos, donors[0].BloodType)
	require.NotNil(t, donors[0].LastDonation)
	assert.Equal(t, domain.Millis(last), *donors[0].LastDonation)
	assert.Nil(t, donors[1].LastDonation)
}

func TestPostgresFetchDonorsSkipsBadRows(t *testing.T) {
	fake := &fakeSQL{people: [][]any{
		personValues("d1", "Ana", "", "O+", nil, []string{}),
		personValues("d2", "Bo", "", "??", nil, []string{}),
	}}
	s := NewPostgresStore(fake, zerolog.Nop(), nil)

	donors, err := s.FetchDonors(context.Background())
	require.NoError(t, err)
	require.Len(t, donors, 1)
	assert.Equal(t, "d1", donors[0].ID)
}

func TestPostgresSaveDonorUpserts(t *testing.T) {
	fake := &fakeSQL{}
	s := NewPostgresStore(fake, zerolog.Nop(), nil)

	last := domain.Millis(1715000000000)
	d := domain.Donor{
		ID:           "d1",
		Name:         "Ana",
		Phone:        "+385 91 555 666",
		BloodType:    domain.BloodBPos,
		LastDonation: &last,
		GroupIDs:     []string{"g1"},
	}
	require.NoError(t, s.SaveDonor(context.Background(), d))

	require.Len(t, fake.execs, 1)
	call := fake.execs[0]
	assert.Equal(t, sqlinline.QUpsertPerson, call.query)
	require.Len(t, call.args, 8)
	assert.Equal(t, "d1", call.args[0])
	assert.Equal(t, "B+", call.args[3])
	require.IsType(t, (*int64)(nil), call.args[4])
	assert.Equal(t, int64(1715000000000), *call.args[4].(*int64))
	assert.Equal(t, []string{"g1"}, call.args[5])
}

func TestPostgresDeleteGroupScrubsThenDeletes(t *testing.T) {
	fake := &fakeSQL{}
	s := NewPostgresStore(fake, zerolog.Nop(), nil)

	require.NoError(t, s.DeleteGroup(context.Background(), "g1"))

	require.Len(t, fake.execs, 2)
	assert.Equal(t, sqlinline.QScrubGroupMembership, fake.execs[0].query,
		"membership scrub must run before the group row is dropped")
	assert.Equal(t, sqlinline.QDeleteGroup, fake.execs[1].query)
	assert.Equal(t, []any{"g1"}, fake.execs[0].args)
}

func TestPostgresErrorsAreRemote(t *testing.T) {
	boom := errors.New("connection refused")
	fake := &fakeSQL{execErr: boom}
	s := NewPostgresStore(fake, zerolog.Nop(), nil)

	err := s.SaveDonor(context.Background(), domain.Donor{ID: "d1", Name: "Ana", BloodType: domain.BloodAPos})
	require.Error(t, err)
	re, ok := AsRemote(err)
	require.True(t, ok)
	assert.Equal(t, "postgres", re.Backend)
	assert.ErrorIs(t, err, boom)
}

func TestPostgresPing(t *testing.T) {
	s := NewPostgresStore(&fakeSQL{}, zerolog.Nop(), nil)
	assert.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, "postgres", s.Kind())

	down := NewPostgresStore(&fakeSQL{pingErr: errors.New("down")}, zerolog.Nop(), nil)
	err := down.Ping(context.Background())
	require.Error(t, err)
	_, ok := AsRemote(err)
	assert.True(t, ok)
}
