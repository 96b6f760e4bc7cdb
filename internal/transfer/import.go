package transfer

import (
	"context"
	"fmt"
	"strings"

	"donorhub/internal/domain"
	"donorhub/internal/domain/payload"
	"donorhub/internal/store"
)

// Mode selects how an imported document combines with the existing
// local collections.
type Mode string

const (
	// ModeOverwrite replaces each collection the document carries.
	ModeOverwrite Mode = "overwrite"
	// ModeAppend upserts the document's records into the existing
	// collections, keyed by id.
	ModeAppend Mode = "append"
)

// ImportRequest is the accepted upload shape. People and Groups are
// pointers so that an absent array leaves the matching collection
// untouched while an empty one clears it under overwrite. A plain
// export document decodes into this with Mode defaulting to overwrite.
type ImportRequest struct {
	Mode   Mode            `json:"mode"`
	People *[]importPerson `json:"people"`
	Groups *[]importGroup  `json:"groups"`
}

// importPerson decodes one people entry. Field names follow the export
// document; identifiers additionally tolerate the numeric form older
// backups used.
type importPerson struct {
	ID               payload.FlexID `json:"id"`
	Name             string         `json:"name"`
	PhoneNumber      string         `json:"phone_number"`
	BloodGroup       string         `json:"blood_group"`
	LastDonationDate *int64         `json:"last_donation_date"`
	GroupIDs         []string       `json:"group_ids"`
	Notes            string         `json:"notes"`
	Location         string         `json:"location"`
}

func (p importPerson) normalize() (domain.Donor, error) {
	var last *domain.Millis
	if p.LastDonationDate != nil {
		m := domain.Millis(*p.LastDonationDate)
		last = &m
	}
	wire := payload.Donor{
		ID:           payload.FlexID(strings.TrimSpace(string(p.ID))),
		Name:         p.Name,
		Phone:        p.PhoneNumber,
		BloodType:    p.BloodGroup,
		LastDonation: last,
		GroupIDs:     p.GroupIDs,
		Notes:        p.Notes,
		Location:     p.Location,
	}
	return wire.Normalize()
}

type importGroup struct {
	ID    payload.FlexID `json:"id"`
	Name  string         `json:"name"`
	Color string         `json:"color"`
}

func (g importGroup) normalize() (domain.Group, error) {
	wire := payload.Group{ID: g.ID, Name: g.Name, Color: g.Color}
	return wire.Normalize()
}

// Summary reports what an import applied.
type Summary struct {
	Mode           Mode `json:"mode"`
	GroupsImported int  `json:"groups_imported"`
	DonorsImported int  `json:"donors_imported"`
}

// Import applies the uploaded document to the local blobs. Every entry
// is validated before anything is written, so a document with a bad
// record leaves the store as it was. Imports always target the local
// store; pushing the result to a remote gateway is a separate step.
func Import(ctx context.Context, local *store.LocalStore, req ImportRequest) (Summary, error) {
	mode := req.Mode
	if mode == "" {
		mode = ModeOverwrite
	}
	if mode != ModeOverwrite && mode != ModeAppend {
		return Summary{}, fmt.Errorf("%w: unknown import mode %q", domain.ErrValidation, req.Mode)
	}
	if req.People == nil && req.Groups == nil {
		return Summary{}, fmt.Errorf("%w: document carries neither people nor groups", domain.ErrValidation)
	}

	var groups []domain.Group
	if req.Groups != nil {
		groups = make([]domain.Group, 0, len(*req.Groups))
		for i, entry := range *req.Groups {
			g, err := entry.normalize()
			if err != nil {
				return Summary{}, fmt.Errorf("groups[%d]: %w", i, err)
			}
			if g.Color == "" {
				g.Color = domain.NextGroupColor(len(groups))
			}
			groups = append(groups, g)
		}
	}
	var donors []domain.Donor
	if req.People != nil {
		donors = make([]domain.Donor, 0, len(*req.People))
		for i, entry := range *req.People {
			d, err := entry.normalize()
			if err != nil {
				return Summary{}, fmt.Errorf("people[%d]: %w", i, err)
			}
			donors = append(donors, d)
		}
	}

	summary := Summary{Mode: mode}
	if req.Groups != nil {
		merged, err := mergedGroups(ctx, local, mode, groups)
		if err != nil {
			return Summary{}, err
		}
		if err := local.ReplaceGroups(ctx, merged); err != nil {
			return Summary{}, err
		}
		summary.GroupsImported = len(groups)
	}
	if req.People != nil {
		merged, err := mergedDonors(ctx, local, mode, donors)
		if err != nil {
			return Summary{}, err
		}
		if err := local.ReplaceDonors(ctx, merged); err != nil {
			return Summary{}, err
		}
		summary.DonorsImported = len(donors)
	}
	return summary, nil
}

func mergedGroups(ctx context.Context, local *store.LocalStore, mode Mode, incoming []domain.Group) ([]domain.Group, error) {
	var existing []domain.Group
	if mode == ModeAppend {
		var err error
		existing, err = local.FetchGroups(ctx)
		if err != nil {
			return nil, err
		}
	}
	return mergeByID(existing, incoming, func(g domain.Group) string { return g.ID }), nil
}

func mergedDonors(ctx context.Context, local *store.LocalStore, mode Mode, incoming []domain.Donor) ([]domain.Donor, error) {
	var existing []domain.Donor
	if mode == ModeAppend {
		var err error
		existing, err = local.FetchDonors(ctx)
		if err != nil {
			return nil, err
		}
	}
	return mergeByID(existing, incoming, func(d domain.Donor) string { return d.ID }), nil
}

// mergeByID upserts incoming into existing: records with a known id
// replace the original in place, the rest append in document order.
// Duplicate ids inside incoming collapse to the last occurrence.
func mergeByID[T any](existing, incoming []T, id func(T) string) []T {
	merged := append([]T(nil), existing...)
	index := make(map[string]int, len(merged))
	for i, item := range merged {
		index[id(item)] = i
	}
	for _, item := range incoming {
		if i, ok := index[id(item)]; ok {
			merged[i] = item
			continue
		}
		index[id(item)] = len(merged)
		merged = append(merged, item)
	}
	if merged == nil {
		merged = []T{}
	}
	return merged
}
