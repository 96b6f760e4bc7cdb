package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"donorhub/internal/domain"
)

// RestStore talks to a PostgREST-compatible HTTP API, such as a hosted
// Supabase project, exposing the people and groups tables as REST
// resources.
type RestStore struct {
	client *resty.Client
	logger zerolog.Logger
}

// NewRestStore builds the client. The API key rides both headers the
// hosted service understands; an empty key sends neither.
func NewRestStore(endpoint, apiKey string, logger zerolog.Logger) *RestStore {
	client := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("apikey", apiKey)
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &RestStore{client: client, logger: logger}
}

func (s *RestStore) FetchDonors(ctx context.Context) ([]domain.Donor, error) {
	var rows []PersonRow
	resp, err := s.client.R().SetContext(ctx).
		SetQueryParams(map[string]string{"select": "*", "order": "name.asc"}).
		SetResult(&rows).
		Get("/people")
	if e := s.restErr("fetch donors", resp, err); e != nil {
		return nil, e
	}
	donors := make([]domain.Donor, 0, len(rows))
	for _, r := range rows {
		d, err := r.Donor()
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping unreadable person row")
			continue
		}
		donors = append(donors, d)
	}
	return donors, nil
}

func (s *RestStore) FetchGroups(ctx context.Context) ([]domain.Group, error) {
	var rows []GroupRow
	resp, err := s.client.R().SetContext(ctx).
		SetQueryParams(map[string]string{"select": "*", "order": "name.asc"}).
		SetResult(&rows).
		Get("/groups")
	if e := s.restErr("fetch groups", resp, err); e != nil {
		return nil, e
	}
	groups := make([]domain.Group, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, r.Group())
	}
	return groups, nil
}

func (s *RestStore) SaveDonor(ctx context.Context, d domain.Donor) error {
	resp, err := s.client.R().SetContext(ctx).
		SetQueryParam("on_conflict", "id").
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetBody([]PersonRow{PersonRowFrom(d)}).
		Post("/people")
	return s.restErr("save donor", resp, err)
}

func (s *RestStore) DeleteDonor(ctx context.Context, id string) error {
	resp, err := s.client.R().SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		Delete("/people")
	return s.restErr("delete donor", resp, err)
}

func (s *RestStore) SaveGroup(ctx context.Context, g domain.Group) error {
	resp, err := s.client.R().SetContext(ctx).
		SetQueryParam("on_conflict", "id").
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetBody([]GroupRow{GroupRowFrom(g)}).
		Post("/groups")
	return s.restErr("save group", resp, err)
}

// DeleteGroup has no server-side array_remove, so membership is
// scrubbed by re-upserting the affected rows before the group row is
// deleted.
func (s *RestStore) DeleteGroup(ctx context.Context, id string) error {
	donors, err := s.FetchDonors(ctx)
	if err != nil {
		return err
	}
	stripped := []PersonRow{}
	for _, d := range donors {
		if d.InGroup(id) {
			stripped = append(stripped, PersonRowFrom(d.WithoutGroup(id)))
		}
	}
	if len(stripped) > 0 {
		resp, err := s.client.R().SetContext(ctx).
			SetQueryParam("on_conflict", "id").
			SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
			SetBody(stripped).
			Post("/people")
		if e := s.restErr("scrub group members", resp, err); e != nil {
			return e
		}
	}
	resp, err := s.client.R().SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		Delete("/groups")
	return s.restErr("delete group", resp, err)
}

func (s *RestStore) Ping(ctx context.Context) error {
	resp, err := s.client.R().SetContext(ctx).
		SetQueryParams(map[string]string{"select": "id", "limit": "1"}).
		Get("/groups")
	return s.restErr("ping", resp, err)
}

func (s *RestStore) Kind() string { return "rest" }

func (s *RestStore) restErr(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &RemoteError{Backend: "rest", Op: op, Err: err}
	}
	if resp != nil && resp.IsError() {
		detail := strings.TrimSpace(string(resp.Body()))
		if len(detail) > 200 {
			detail = detail[:200]
		}
		if detail == "" {
			detail = resp.Status()
		}
		return &RemoteError{Backend: "rest", Op: op, Status: resp.StatusCode(), Err: errors.New(detail)}
	}
	return nil
}

var _ domain.Store = (*RestStore)(nil)
