package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donorhub/internal/domain"
)

type recordedRequest struct {
	method string
	path   string
	query  url.Values
	prefer string
	apikey string
	auth   string
	body   []byte
}

// restFixture is a minimal PostgREST lookalike that records every
// request and serves canned rows.
type restFixture struct {
	mu       sync.Mutex
	requests []recordedRequest
	people   []PersonRow
	groups   []GroupRow
	status   int
}

func (f *restFixture) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.Query(),
			prefer: r.Header.Get("Prefer"),
			apikey: r.Header.Get("apikey"),
			auth:   r.Header.Get("Authorization"),
			body:   body,
		})
		status := f.status
		people := f.people
		groups := f.groups
		f.mu.Unlock()

		if status != 0 {
			http.Error(w, `{"message":"nope"}`, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/people":
			_ = json.NewEncoder(w).Encode(people)
		case r.Method == http.MethodGet && r.URL.Path == "/groups":
			_ = json.NewEncoder(w).Encode(groups)
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
}

func (f *restFixture) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func newRestStore(t *testing.T, fixture *restFixture) *RestStore {
	t.Helper()
	ts := httptest.NewServer(fixture.handler())
	t.Cleanup(ts.Close)
	return NewRestStore(ts.URL, "secret-key", zerolog.Nop())
}

func TestRestFetchDonorsDecodesRows(t *testing.T) {
	last := int64(1715000000000)
	fixture := &restFixture{people: []PersonRow{
		{ID: "d1", Name: "Ana", PhoneNumber: "+385 91 555 666", BloodGroup: "O+", LastDonationDate: &last, GroupIDs: []string{"g1"}},
		{ID: "d2", Name: "Bo", BloodGroup: "AB-", GroupIDs: []string{}},
	}}
	s := newRestStore(t, fixture)

	donors, err := s.FetchDonors(context.Background())
	require.NoError(t, err)
	require.Len(t, donors, 2)
	assert.Equal(t, "+385 91 555 666", donors[0].Phone)
	assert.Equal(t, domain.BloodOPos, donors[0].BloodType)
	require.NotNil(t, donors[0].LastDonation)
	assert.Nil(t, donors[1].LastDonation)

	reqs := fixture.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "secret-key", reqs[0].apikey)
	assert.Equal(t, "Bearer secret-key", reqs[0].auth)
	assert.Equal(t, "*", reqs[0].query.Get("select"))
}

func TestRestSaveDonorSendsUpsert(t *testing.T) {
	fixture := &restFixture{}
	s := newRestStore(t, fixture)

	last := domain.Millis(1715000000000)
	d := domain.Donor{ID: "d1", Name: "Ana", Phone: "+385", BloodType: domain.BloodBNeg, LastDonation: &last}
	require.NoError(t, s.SaveDonor(context.Background(), d))

	reqs := fixture.recorded()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/people", req.path)
	assert.Equal(t, "id", req.query.Get("on_conflict"))
	assert.Contains(t, req.prefer, "resolution=merge-duplicates")

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(req.body, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "B-", rows[0]["blood_group"])
	assert.Equal(t, float64(1715000000000), rows[0]["last_donation_date"])
}

func TestRestDeleteDonorUsesIDFilter(t *testing.T) {
	fixture := &restFixture{}
	s := newRestStore(t, fixture)

	require.NoError(t, s.DeleteDonor(context.Background(), "d1"))

	reqs := fixture.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodDelete, reqs[0].method)
	assert.Equal(t, "/people", reqs[0].path)
	assert.Equal(t, "eq.d1", reqs[0].query.Get("id"))
}

func TestRestDeleteGroupScrubsMembersFirst(t *testing.T) {
	fixture := &restFixture{people: []PersonRow{
		{ID: "d1", Name: "Ana", BloodGroup: "O+", GroupIDs: []string{"g1", "g2"}},
		{ID: "d2", Name: "Bo", BloodGroup: "A+", GroupIDs: []string{"g2"}},
	}}
	s := newRestStore(t, fixture)

	require.NoError(t, s.DeleteGroup(context.Background(), "g1"))

	reqs := fixture.recorded()
	require.Len(t, reqs, 3, "fetch, scrub upsert, delete")

	assert.Equal(t, http.MethodGet, reqs[0].method)

	assert.Equal(t, http.MethodPost, reqs[1].method)
	assert.Equal(t, "/people", reqs[1].path)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(reqs[1].body, &rows))
	require.Len(t, rows, 1, "only members of the deleted group are rewritten")
	assert.Equal(t, "d1", rows[0]["id"])
	assert.Equal(t, []any{"g2"}, rows[0]["group_ids"])

	assert.Equal(t, http.MethodDelete, reqs[2].method)
	assert.Equal(t, "/groups", reqs[2].path)
	assert.Equal(t, "eq.g1", reqs[2].query.Get("id"))
}

func TestRestDeleteGroupNoMembersSkipsUpsert(t *testing.T) {
	fixture := &restFixture{people: []PersonRow{
		{ID: "d1", Name: "Ana", BloodGroup: "O+", GroupIDs: []string{}},
	}}
	s := newRestStore(t, fixture)

	require.NoError(t, s.DeleteGroup(context.Background(), "g9"))

	reqs := fixture.recorded()
	require.Len(t, reqs, 2, "fetch then delete, no scrub needed")
	assert.Equal(t, http.MethodDelete, reqs[1].method)
}

func TestRestErrorStatusBecomesRemoteError(t *testing.T) {
	fixture := &restFixture{status: http.StatusUnauthorized}
	s := newRestStore(t, fixture)

	err := s.Ping(context.Background())
	require.Error(t, err)
	re, ok := AsRemote(err)
	require.True(t, ok)
	assert.Equal(t, "rest", re.Backend)
	assert.Equal(t, http.StatusUnauthorized, re.Status)
}

func TestRestPingChecksGroups(t *testing.T) {
	fixture := &restFixture{}
	s := newRestStore(t, fixture)

	require.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, "rest", s.Kind())

	reqs := fixture.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/groups", reqs[0].path)
	assert.Equal(t, "1", reqs[0].query.Get("limit"))
}
