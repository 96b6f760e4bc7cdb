package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"donorhub/internal/domain"
	"donorhub/internal/domain/payload"
	"donorhub/internal/middleware"
)

// donorDTO is the API view of a donor: the stored record plus the
// eligibility decoration computed against the request time.
type donorDTO struct {
	payload.Donor
	Eligible     bool   `json:"eligible"`
	RecoveryDays *int   `json:"recoveryDays"`
	Eligibility  string `json:"eligibility"`
}

func donorView(d domain.Donor, now time.Time) donorDTO {
	dto := donorDTO{
		Donor:       payload.FromDonor(d),
		Eligible:    d.Eligible(now),
		Eligibility: d.EligibilityLabel(now),
	}
	// recoveryDays stays null for donors who never donated; zero means
	// the recovery window has fully elapsed.
	if days, ok := d.RecoveryRemaining(now); ok {
		dto.RecoveryDays = &days
	}
	return dto
}

func donorViews(donors []domain.Donor, now time.Time) []donorDTO {
	out := make([]donorDTO, 0, len(donors))
	for _, d := range donors {
		out = append(out, donorView(d, now))
	}
	return out
}

func (a *App) DonorsList(w http.ResponseWriter, r *http.Request) {
	q := domain.Query{
		Search:  r.URL.Query().Get("search"),
		GroupID: r.URL.Query().Get("group"),
		Sort:    domain.SortKey(r.URL.Query().Get("sort")),
	}
	if raw := r.URL.Query().Get("blood_type"); raw != "" {
		bt, err := domain.ParseBloodType(raw)
		if err != nil {
			a.fail(w, err)
			return
		}
		q.BloodType = bt
	}
	now := a.now()
	donors := domain.QueryDonors(a.Sync.Donors(), q, now)
	a.json(w, http.StatusOK, map[string]any{
		"items": donorViews(donors, now),
		"total": len(donors),
	})
}

func (a *App) DonorsCreate(w http.ResponseWriter, r *http.Request) {
	var req payload.Donor
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.ID = "" // registration always assigns the ID
	d, err := req.Normalize()
	if err != nil {
		a.fail(w, err)
		return
	}
	if d.Phone == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "donor phone is required")
		return
	}
	if d.Location == "" {
		d.Location = middleware.CountryFromContext(r.Context())
	}
	created, err := a.Sync.RegisterDonor(r.Context(), d)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, donorView(created, a.now()))
}

func (a *App) DonorsGet(w http.ResponseWriter, r *http.Request) {
	d, err := a.Sync.Donor(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, donorView(d, a.now()))
}

func (a *App) DonorsUpdate(w http.ResponseWriter, r *http.Request) {
	var req payload.Donor
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	// The path identifies the record; an ID in the body is ignored.
	req.ID = payload.FlexID(chi.URLParam(r, "id"))
	d, err := req.Normalize()
	if err != nil {
		a.fail(w, err)
		return
	}
	if d.Phone == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "donor phone is required")
		return
	}
	updated, err := a.Sync.UpdateDonor(r.Context(), d)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, donorView(updated, a.now()))
}

func (a *App) DonorsDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.Sync.DeleteDonor(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) DonorsMarkDonated(w http.ResponseWriter, r *http.Request) {
	d, err := a.Sync.MarkDonated(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, donorView(d, a.now()))
}

// DonorsCompatibility answers "who in the directory matches this
// donor": the static compatibility entry for their blood type plus the
// other donors they could give to or receive from.
func (a *App) DonorsCompatibility(w http.ResponseWriter, r *http.Request) {
	d, err := a.Sync.Donor(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	entry, _ := domain.CompatibilityFor(d.BloodType)
	now := a.now()
	canDonateTo := make([]donorDTO, 0)
	canReceiveFrom := make([]donorDTO, 0)
	for _, other := range a.Sync.Donors() {
		if other.ID == d.ID {
			continue
		}
		if domain.CanDonate(d.BloodType, other.BloodType) {
			canDonateTo = append(canDonateTo, donorView(other, now))
		}
		if domain.CanDonate(other.BloodType, d.BloodType) {
			canReceiveFrom = append(canReceiveFrom, donorView(other, now))
		}
	}
	a.json(w, http.StatusOK, map[string]any{
		"donor":          donorView(d, now),
		"compatibility":  compatView(domain.CompatibilityEntry{Type: d.BloodType, Compatibility: entry}),
		"canDonateTo":    canDonateTo,
		"canReceiveFrom": canReceiveFrom,
	})
}
