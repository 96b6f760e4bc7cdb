package handlers

import (
	"net/http"

	"donorhub/internal/domain"
)

type compatibilityDTO struct {
	BloodType   domain.BloodType   `json:"bloodType"`
	DonateTo    []domain.BloodType `json:"donateTo"`
	ReceiveFrom []domain.BloodType `json:"receiveFrom"`
}

func compatView(e domain.CompatibilityEntry) compatibilityDTO {
	return compatibilityDTO{
		BloodType:   e.Type,
		DonateTo:    e.DonateTo,
		ReceiveFrom: e.ReceiveFrom,
	}
}

// CompatibilityTable serves the full ABO/Rh matrix in canonical order.
func (a *App) CompatibilityTable(w http.ResponseWriter, r *http.Request) {
	entries := domain.CompatibilityTable()
	items := make([]compatibilityDTO, 0, len(entries))
	for _, e := range entries {
		items = append(items, compatView(e))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
