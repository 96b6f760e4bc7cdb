package handlers

import (
	"net/http"

	"donorhub/internal/domain"
)

type bloodTypeCount struct {
	BloodType domain.BloodType `json:"bloodType"`
	Count     int              `json:"count"`
}

// Stats feeds the dashboard: directory totals plus a per-blood-type
// breakdown that always lists all eight groups so charts keep a stable
// axis.
func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	donors := a.Sync.Donors()
	now := a.now()
	counts := make(map[domain.BloodType]int, len(domain.BloodTypes))
	eligible := 0
	for _, d := range donors {
		counts[d.BloodType]++
		if d.Eligible(now) {
			eligible++
		}
	}
	byType := make([]bloodTypeCount, 0, len(domain.BloodTypes))
	for _, bt := range domain.BloodTypes {
		byType = append(byType, bloodTypeCount{BloodType: bt, Count: counts[bt]})
	}
	a.json(w, http.StatusOK, map[string]any{
		"totalDonors": len(donors),
		"eligibleNow": eligible,
		"groups":      len(a.Sync.Groups()),
		"byBloodType": byType,
	})
}
