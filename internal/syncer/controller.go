// Package syncer keeps the in-memory working set of donors and groups
// coordinated with the active persistence gateway.
//
// Mutations within one process are serialized by the controller lock,
// so two handlers can never interleave a read-modify-write. Across
// processes sharing a remote backend the writes stay last-writer-wins:
// saves carry whole records, so the slower writer overwrites the
// faster one without merging.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"donorhub/internal/domain"
	"donorhub/internal/store"
)

// Controller owns the working set and the gateway behind it.
type Controller struct {
	local     *store.LocalStore
	logger    zerolog.Logger
	metrics   *Metrics
	now       func() time.Time
	reconcile bool

	mu      sync.Mutex
	gateway domain.Store
	donors  []domain.Donor
	groups  []domain.Group
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithMetrics attaches sync metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithReconcile re-fetches the working set in the background after a
// successful optimistic update.
func WithReconcile(enabled bool) Option {
	return func(c *Controller) { c.reconcile = enabled }
}

// New builds a controller over the always-present local store and the
// currently active gateway, which may be the local store itself.
func New(local *store.LocalStore, gateway domain.Store, logger zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		local:   local,
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
		donors:  []domain.Donor{},
		groups:  []domain.Group{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh replaces the working set with the gateway's current state.
// On failure the previous working set stays visible.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Controller) refreshLocked(ctx context.Context) error {
	start := time.Now()
	donors, err := c.gateway.FetchDonors(ctx)
	if err != nil {
		c.noteGatewayErr(err)
		return fmt.Errorf("refresh donors: %w", err)
	}
	groups, err := c.gateway.FetchGroups(ctx)
	if err != nil {
		c.noteGatewayErr(err)
		return fmt.Errorf("refresh groups: %w", err)
	}
	c.donors = donors
	c.groups = groups
	c.metrics.ObserveRefresh(time.Since(start))
	return nil
}

// Donors returns a copy of the donor working set. Callers must treat
// the records as read-only.
func (c *Controller) Donors() []domain.Donor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Donor(nil), c.donors...)
}

// Groups returns a copy of the group working set.
func (c *Controller) Groups() []domain.Group {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Group(nil), c.groups...)
}

// Donor finds one donor by ID.
func (c *Controller) Donor(id string) (domain.Donor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.donors {
		if d.ID == id {
			return d.Clone(), nil
		}
	}
	return domain.Donor{}, domain.ErrNotFound
}

// Group finds one group by ID.
func (c *Controller) Group(id string) (domain.Group, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return domain.Group{}, domain.ErrNotFound
}

// GatewayKind names the active backend.
func (c *Controller) GatewayKind() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gateway.Kind()
}

// Local exposes the always-present local store for import and push.
func (c *Controller) Local() *store.LocalStore { return c.local }

// PingGateway verifies the active backend is reachable.
func (c *Controller) PingGateway(ctx context.Context) error {
	c.mu.Lock()
	gw := c.gateway
	c.mu.Unlock()
	return gw.Ping(ctx)
}

// RegisterDonor persists a new donor and then makes it visible. An
// empty ID receives a fresh UUID. Creation is persist-first: a gateway
// failure leaves the working set untouched.
func (c *Controller) RegisterDonor(ctx context.Context, d domain.Donor) (domain.Donor, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.gateway.SaveDonor(ctx, d); err != nil {
		c.noteGatewayErr(err)
		return domain.Donor{}, err
	}
	c.upsertDonorLocked(d)
	return d.Clone(), nil
}

// UpdateDonor persists changes to an existing donor. The donation
// timestamp is carried over from the stored record; MarkDonated is the
// only way to move it.
func (c *Controller) UpdateDonor(ctx context.Context, d domain.Donor) (domain.Donor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.donorIndexLocked(d.ID)
	if idx < 0 {
		return domain.Donor{}, domain.ErrNotFound
	}
	current := c.donors[idx]
	d.LastDonation = current.LastDonation
	if err := c.gateway.SaveDonor(ctx, d); err != nil {
		c.noteGatewayErr(err)
		return domain.Donor{}, err
	}
	c.donors[idx] = d
	return d.Clone(), nil
}

// MarkDonated stamps the donor with the current time optimistically:
// the working set changes first, and a failed persist rolls it back
// and re-reads the gateway so the authoritative state wins.
func (c *Controller) MarkDonated(ctx context.Context, id string) (domain.Donor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.donorIndexLocked(id)
	if idx < 0 {
		return domain.Donor{}, domain.ErrNotFound
	}
	snapshot := c.donors[idx].Clone()
	updated := snapshot.Clone()
	stamp := domain.MillisFromTime(c.now())
	updated.LastDonation = &stamp

	err := c.optimisticLocked(ctx, "mark_donated",
		func() { c.donors[idx] = updated },
		func() { c.donors[idx] = snapshot },
		func() error { return c.gateway.SaveDonor(ctx, updated) },
	)
	if err != nil {
		if rerr := c.refreshLocked(ctx); rerr != nil {
			c.logger.Warn().Err(rerr).Msg("refresh after failed mark-donated")
		}
		return domain.Donor{}, err
	}
	return updated.Clone(), nil
}

// DeleteDonor removes the donor optimistically, restoring it at its
// old position when the gateway refuses the delete.
func (c *Controller) DeleteDonor(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.donorIndexLocked(id)
	if idx < 0 {
		return domain.ErrNotFound
	}
	snapshot := c.donors[idx]
	return c.optimisticLocked(ctx, "delete_donor",
		func() { c.donors = append(c.donors[:idx], c.donors[idx+1:]...) },
		func() {
			c.donors = append(c.donors, domain.Donor{})
			copy(c.donors[idx+1:], c.donors[idx:])
			c.donors[idx] = snapshot
		},
		func() error { return c.gateway.DeleteDonor(ctx, id) },
	)
}

// CreateGroup persists a new group. An empty color picks the next
// palette entry based on how many groups already exist.
func (c *Controller) CreateGroup(ctx context.Context, name, color string) (domain.Group, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if color == "" {
		color = domain.NextGroupColor(len(c.groups))
	}
	g := domain.Group{ID: uuid.NewString(), Name: name, Color: color}
	if err := c.gateway.SaveGroup(ctx, g); err != nil {
		c.noteGatewayErr(err)
		return domain.Group{}, err
	}
	c.groups = append(c.groups, g)
	return g, nil
}

// DeleteGroup lets the gateway cascade the removal, then scrubs the
// working set to match.
func (c *Controller) DeleteGroup(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	found := false
	for _, g := range c.groups {
		if g.ID == id {
			found = true
			break
		}
	}
	if !found {
		return domain.ErrNotFound
	}
	if err := c.gateway.DeleteGroup(ctx, id); err != nil {
		c.noteGatewayErr(err)
		return err
	}
	kept := c.groups[:0]
	for _, g := range c.groups {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	c.groups = kept
	for i := range c.donors {
		if c.donors[i].InGroup(id) {
			c.donors[i] = c.donors[i].WithoutGroup(id)
		}
	}
	return nil
}

// SwitchGateway swaps the active backend and refreshes from it. Data
// is never migrated by the switch itself; PushLocal exists for that.
func (c *Controller) SwitchGateway(ctx context.Context, gw domain.Store) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.gateway.(interface{ Close() }); ok && c.gateway != gw {
		defer old.Close()
	}
	c.gateway = gw
	c.logger.Info().Str("backend", gw.Kind()).Msg("gateway switched")
	return c.refreshLocked(ctx)
}

// PushReport summarizes a bulk push.
type PushReport struct {
	GroupsPushed int `json:"groups_pushed"`
	GroupsTotal  int `json:"groups_total"`
	DonorsPushed int `json:"donors_pushed"`
	DonorsTotal  int `json:"donors_total"`
}

// PushLocal copies every local group and donor to the active remote
// gateway, groups first so memberships always point at existing rows.
// The push is sequential and stops at the first failure; records
// already pushed stay remote.
func (c *Controller) PushLocal(ctx context.Context) (PushReport, error) {
	c.mu.Lock()
	gw := c.gateway
	c.mu.Unlock()
	if gw.Kind() == "local" {
		return PushReport{}, domain.ErrCloudDisabled
	}

	donors, err := c.local.FetchDonors(ctx)
	if err != nil {
		return PushReport{}, fmt.Errorf("read local donors: %w", err)
	}
	groups, err := c.local.FetchGroups(ctx)
	if err != nil {
		return PushReport{}, fmt.Errorf("read local groups: %w", err)
	}

	report := PushReport{GroupsTotal: len(groups), DonorsTotal: len(donors)}
	for _, g := range groups {
		if err := gw.SaveGroup(ctx, g); err != nil {
			c.noteGatewayErr(err)
			return report, fmt.Errorf("push group %s: %w", g.ID, err)
		}
		report.GroupsPushed++
	}
	c.metrics.RecordPush("groups", report.GroupsPushed)
	for _, d := range donors {
		if err := gw.SaveDonor(ctx, d); err != nil {
			c.noteGatewayErr(err)
			c.metrics.RecordPush("donors", report.DonorsPushed)
			return report, fmt.Errorf("push donor %s: %w", d.ID, err)
		}
		report.DonorsPushed++
	}
	c.metrics.RecordPush("donors", report.DonorsPushed)
	c.logger.Info().
		Int("groups", report.GroupsPushed).
		Int("donors", report.DonorsPushed).
		Str("backend", gw.Kind()).
		Msg("local data pushed")
	return report, nil
}

// optimisticLocked runs the two-phase protocol: apply to the working
// set, persist, roll back on failure. The caller holds the lock.
func (c *Controller) optimisticLocked(ctx context.Context, op string, apply, rollback func(), persist func() error) error {
	apply()
	if err := persist(); err != nil {
		rollback()
		c.metrics.RecordRollback(op)
		c.noteGatewayErr(err)
		c.logger.Warn().Err(err).Str("op", op).Msg("optimistic update rolled back")
		return err
	}
	if c.reconcile {
		go c.reconcileAsync()
	}
	return nil
}

// reconcileAsync re-reads the gateway without blocking the caller that
// already sees the optimistic state.
func (c *Controller) reconcileAsync() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("background reconcile failed")
	}
}

func (c *Controller) donorIndexLocked(id string) int {
	for i, d := range c.donors {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) upsertDonorLocked(d domain.Donor) {
	if idx := c.donorIndexLocked(d.ID); idx >= 0 {
		c.donors[idx] = d
		return
	}
	c.donors = append(c.donors, d)
}

func (c *Controller) noteGatewayErr(err error) {
	if re, ok := store.AsRemote(err); ok {
		c.metrics.RecordRemoteError(re.Backend)
	}
}
