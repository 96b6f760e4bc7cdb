package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"donorhub/internal/domain"
	"donorhub/internal/domain/payload"
)

const (
	donorsBlob = "donors.json"
	groupsBlob = "groups.json"
)

// LocalStore keeps the directory in JSON blob files on disk. It is the
// default backend and remains available as the push source even while
// a remote gateway is active.
type LocalStore struct {
	dir    string
	logger zerolog.Logger

	mu sync.Mutex
}

// NewLocalStore prepares the data directory and returns the store.
func NewLocalStore(dir string, logger zerolog.Logger) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &LocalStore{dir: dir, logger: logger}, nil
}

func (s *LocalStore) FetchDonors(ctx context.Context) ([]domain.Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readDonors()
}

func (s *LocalStore) FetchGroups(ctx context.Context) ([]domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readGroups()
}

func (s *LocalStore) SaveDonor(ctx context.Context, d domain.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	donors, err := s.readDonors()
	if err != nil {
		return err
	}
	replaced := false
	for i := range donors {
		if donors[i].ID == d.ID {
			donors[i] = d
			replaced = true
			break
		}
	}
	if !replaced {
		donors = append(donors, d)
	}
	return s.writeBlob(donorsBlob, payload.FromDonors(donors))
}

// DeleteDonor removes the donor if present. Deleting an unknown ID is
// a no-op.
func (s *LocalStore) DeleteDonor(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	donors, err := s.readDonors()
	if err != nil {
		return err
	}
	kept := donors[:0]
	for _, d := range donors {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(donors) {
		return nil
	}
	return s.writeBlob(donorsBlob, payload.FromDonors(kept))
}

func (s *LocalStore) SaveGroup(ctx context.Context, g domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups, err := s.readGroups()
	if err != nil {
		return err
	}
	replaced := false
	for i := range groups {
		if groups[i].ID == g.ID {
			groups[i] = g
			replaced = true
			break
		}
	}
	if !replaced {
		groups = append(groups, g)
	}
	return s.writeBlob(groupsBlob, payload.FromGroups(groups))
}

// DeleteGroup scrubs the group from every donor's membership list
// before dropping the group itself, so no donor ever references a
// missing group.
func (s *LocalStore) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	donors, err := s.readDonors()
	if err != nil {
		return err
	}
	touched := false
	for i := range donors {
		if donors[i].InGroup(id) {
			donors[i] = donors[i].WithoutGroup(id)
			touched = true
		}
	}
	if touched {
		if err := s.writeBlob(donorsBlob, payload.FromDonors(donors)); err != nil {
			return err
		}
	}

	groups, err := s.readGroups()
	if err != nil {
		return err
	}
	kept := groups[:0]
	for _, g := range groups {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	if len(kept) == len(groups) {
		return nil
	}
	return s.writeBlob(groupsBlob, payload.FromGroups(kept))
}

// ReplaceDonors rewrites the donor blob wholesale. Import uses it for
// overwrite mode.
func (s *LocalStore) ReplaceDonors(ctx context.Context, donors []domain.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeBlob(donorsBlob, payload.FromDonors(donors))
}

// ReplaceGroups rewrites the group blob wholesale.
func (s *LocalStore) ReplaceGroups(ctx context.Context, groups []domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeBlob(groupsBlob, payload.FromGroups(groups))
}

func (s *LocalStore) Ping(ctx context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

func (s *LocalStore) Kind() string { return "local" }

func (s *LocalStore) readDonors() ([]domain.Donor, error) {
	var records []payload.Donor
	ok, err := s.readBlob(donorsBlob, &records)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.Donor{}, nil
	}
	donors := make([]domain.Donor, 0, len(records))
	for _, rec := range records {
		d, err := rec.Normalize()
		if err != nil {
			s.logger.Warn().Err(err).Str("blob", donorsBlob).Msg("skipping invalid donor record")
			continue
		}
		donors = append(donors, d)
	}
	return donors, nil
}

func (s *LocalStore) readGroups() ([]domain.Group, error) {
	var records []payload.Group
	ok, err := s.readBlob(groupsBlob, &records)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.Group{}, nil
	}
	groups := make([]domain.Group, 0, len(records))
	for _, rec := range records {
		g, err := rec.Normalize()
		if err != nil {
			s.logger.Warn().Err(err).Str("blob", groupsBlob).Msg("skipping invalid group record")
			continue
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// readBlob reports ok=false when the blob is absent or unreadable as
// JSON. A corrupt blob is logged and treated as empty so the app keeps
// working; real I/O failures surface as errors.
func (s *LocalStore) readBlob(name string, dest any) (bool, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn().Err(err).Str("blob", name).Msg("corrupt blob, starting empty")
		return false, nil
	}
	return true, nil
}

// writeBlob writes through a temp file and renames it into place so a
// crash mid-write cannot leave a half-written blob behind.
func (s *LocalStore) writeBlob(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("temp %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

var _ domain.Store = (*LocalStore)(nil)
