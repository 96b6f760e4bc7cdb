// Package payload defines the JSON shapes shared by the HTTP API, the
// local blob store and export documents, plus the normalization
// applied whenever records cross one of those boundaries.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"donorhub/internal/domain"
)

// FlexID decodes identifiers that older exports wrote as JSON numbers.
// It always marshals back as a string.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// Donor is the wire form of a donor record. Field names match what the
// browser client persists, not the remote database columns.
type Donor struct {
	ID           FlexID         `json:"id"`
	Name         string         `json:"name"`
	Phone        string         `json:"phone"`
	BloodType    string         `json:"bloodType"`
	LastDonation *domain.Millis `json:"lastDonation"`
	GroupIDs     []string       `json:"groupIds"`
	Notes        string         `json:"notes,omitempty"`
	Location     string         `json:"location,omitempty"`
}

// Group is the wire form of a donor group.
type Group struct {
	ID    FlexID `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// FromDonor converts a domain donor into its wire form.
func FromDonor(d domain.Donor) Donor {
	groupIDs := d.GroupIDs
	if groupIDs == nil {
		groupIDs = []string{}
	}
	return Donor{
		ID:           FlexID(d.ID),
		Name:         d.Name,
		Phone:        d.Phone,
		BloodType:    string(d.BloodType),
		LastDonation: d.LastDonation,
		GroupIDs:     groupIDs,
		Notes:        d.Notes,
		Location:     d.Location,
	}
}

// FromGroup converts a domain group into its wire form.
func FromGroup(g domain.Group) Group {
	return Group{ID: FlexID(g.ID), Name: g.Name, Color: g.Color}
}

// FromDonors converts a slice, preserving order.
func FromDonors(donors []domain.Donor) []Donor {
	out := make([]Donor, 0, len(donors))
	for _, d := range donors {
		out = append(out, FromDonor(d))
	}
	return out
}

// FromGroups converts a slice, preserving order.
func FromGroups(groups []domain.Group) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, FromGroup(g))
	}
	return out
}

// Normalize validates the record and returns its domain form. Missing
// IDs receive a fresh UUID, names and phones are trimmed, blood types
// are parsed leniently and duplicate group memberships collapse.
func (p Donor) Normalize() (domain.Donor, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return domain.Donor{}, fmt.Errorf("%w: donor name is required", domain.ErrValidation)
	}
	bt, err := domain.ParseBloodType(p.BloodType)
	if err != nil {
		return domain.Donor{}, err
	}
	id := strings.TrimSpace(string(p.ID))
	if id == "" {
		id = uuid.NewString()
	}
	d := domain.Donor{
		ID:        id,
		Name:      name,
		Phone:     strings.TrimSpace(p.Phone),
		BloodType: bt,
		Notes:     strings.TrimSpace(p.Notes),
		Location:  strings.TrimSpace(p.Location),
		GroupIDs:  dedupeIDs(p.GroupIDs),
	}
	if p.LastDonation != nil {
		ld := *p.LastDonation
		d.LastDonation = &ld
	}
	return d, nil
}

// Normalize validates the group record and returns its domain form. An
// empty color is preserved so the caller can assign one from the
// palette.
func (g Group) Normalize() (domain.Group, error) {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return domain.Group{}, fmt.Errorf("%w: group name is required", domain.ErrValidation)
	}
	id := strings.TrimSpace(string(g.ID))
	if id == "" {
		id = uuid.NewString()
	}
	return domain.Group{ID: id, Name: name, Color: strings.TrimSpace(g.Color)}, nil
}

func dedupeIDs(ids []string) []string {
	out := []string{}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
