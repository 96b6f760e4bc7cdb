package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"donorhub/internal/domain/payload"
)

type groupDTO struct {
	payload.Group
	Members int `json:"members"`
}

func (a *App) GroupsList(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int)
	for _, d := range a.Sync.Donors() {
		for _, gid := range d.GroupIDs {
			counts[gid]++
		}
	}
	groups := a.Sync.Groups()
	items := make([]groupDTO, 0, len(groups))
	for _, g := range groups {
		items = append(items, groupDTO{Group: payload.FromGroup(g), Members: counts[g.ID]})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

type groupRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (a *App) GroupsCreate(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "group name is required")
		return
	}
	g, err := a.Sync.CreateGroup(r.Context(), name, strings.TrimSpace(req.Color))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, groupDTO{Group: payload.FromGroup(g)})
}

func (a *App) GroupsDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.Sync.DeleteGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
