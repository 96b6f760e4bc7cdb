package store

import (
	"fmt"

	"donorhub/internal/domain"
)

// PersonRow mirrors the remote people table. The remote schema keeps
// its own column names, so this file is the single place translating
// between those and the application model. Both remote backends and
// the export document share it.
type PersonRow struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	PhoneNumber      string   `json:"phone_number"`
	BloodGroup       string   `json:"blood_group"`
	LastDonationDate *int64   `json:"last_donation_date"`
	GroupIDs         []string `json:"group_ids"`
	Notes            string   `json:"notes"`
	Location         string   `json:"location"`
}

func PersonRowFrom(d domain.Donor) PersonRow {
	row := PersonRow{
		ID:          d.ID,
		Name:        d.Name,
		PhoneNumber: d.Phone,
		BloodGroup:  string(d.BloodType),
		GroupIDs:    d.GroupIDs,
		Notes:       d.Notes,
		Location:    d.Location,
	}
	if row.GroupIDs == nil {
		row.GroupIDs = []string{}
	}
	if d.LastDonation != nil {
		v := int64(*d.LastDonation)
		row.LastDonationDate = &v
	}
	return row
}

func (r PersonRow) Donor() (domain.Donor, error) {
	bt, err := domain.ParseBloodType(r.BloodGroup)
	if err != nil {
		return domain.Donor{}, fmt.Errorf("person %s: %w", r.ID, err)
	}
	d := domain.Donor{
		ID:        r.ID,
		Name:      r.Name,
		Phone:     r.PhoneNumber,
		BloodType: bt,
		GroupIDs:  r.GroupIDs,
		Notes:     r.Notes,
		Location:  r.Location,
	}
	if d.GroupIDs == nil {
		d.GroupIDs = []string{}
	}
	if r.LastDonationDate != nil {
		m := domain.Millis(*r.LastDonationDate)
		d.LastDonation = &m
	}
	return d, nil
}

// GroupRow mirrors the remote groups table.
type GroupRow struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func GroupRowFrom(g domain.Group) GroupRow {
	return GroupRow{ID: g.ID, Name: g.Name, Color: g.Color}
}

func (r GroupRow) Group() domain.Group {
	return domain.Group{ID: r.ID, Name: r.Name, Color: r.Color}
}
