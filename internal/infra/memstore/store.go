// Package memstore is a process-local booking store for tests and single-node
// development. Writers on one resource are serialized by a keyed mutex and
// each unit of work is applied atomically at commit.
package memstore

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/resource"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/lock"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/usecase/queries"
	"booking-engine/internal/usecase/readmodel"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

type Store struct {
	mu        sync.RWMutex
	bookings  map[uuid.UUID]*booking.Booking
	resources map[uuid.UUID]*resource.Resource
	customers map[uuid.UUID]shared.CustomerSnapshot
	services  map[uuid.UUID]shared.ServiceSnapshot
	jobs      []*readmodel.NotificationJobRM

	locks *lock.KeyedMutex
	clock clock.Clock
}

func NewStore(clk clock.Clock) *Store {
	return &Store{
		bookings:  make(map[uuid.UUID]*booking.Booking),
		resources: make(map[uuid.UUID]*resource.Resource),
		customers: make(map[uuid.UUID]shared.CustomerSnapshot),
		services:  make(map[uuid.UUID]shared.ServiceSnapshot),
		locks:     lock.NewKeyedMutex(),
		clock:     clk,
	}
}

// ================================================================================
// Seeding
// ================================================================================

func (s *Store) PutResource(r *resource.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.ID()] = r
}

func (s *Store) PutCustomer(c shared.CustomerSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

func (s *Store) PutService(svc shared.ServiceSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
}

// PutBooking stores b as-is, bypassing the unit of work.
func (s *Store) PutBooking(b *booking.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID()] = b.Clone()
}

// Jobs returns a copy of every outbox job in enqueue order.
func (s *Store) Jobs() []readmodel.NotificationJobRM {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]readmodel.NotificationJobRM, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = *j
	}
	return out
}

// ================================================================================
// UnitOfWork
// ================================================================================

func (s *Store) WithinResource(ctx context.Context, resourceID uuid.UUID, fn func(ctx context.Context, tx shared.Tx) error) error {
	unlock, err := s.locks.Lock(ctx, resourceID.String())
	if err != nil {
		return infra.NewRepoErr(infra.KindDBFailure, "failed to acquire resource lock", err)
	}
	defer unlock()

	tx := &memTx{store: s, writes: make(map[uuid.UUID]*booking.Booking)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return infra.NewRepoErr(infra.KindDBFailure, "failed to commit", err)
	}
	tx.commit()
	return nil
}

func (s *Store) CommandReads() shared.CommandReads {
	return commandReads{s}
}

// Bookings exposes the store as a booking read store.
func (s *Store) Bookings() queries.BookingReadStore {
	return bookingReads{s}
}

// Resources exposes the store as a resource read store.
func (s *Store) Resources() queries.ResourceReadStore {
	return resourceReads{s}
}

type memTx struct {
	store  *Store
	writes map[uuid.UUID]*booking.Booking
	jobs   []*readmodel.NotificationJobRM
}

func (t *memTx) Bookings() shared.BookingRepository          { return txBookings{t} }
func (t *memTx) Notifications() shared.NotificationRepository { return txNotifications{t} }

func (t *memTx) lookup(id uuid.UUID) (*booking.Booking, bool) {
	if b, ok := t.writes[id]; ok {
		return b, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	b, ok := t.store.bookings[id]
	return b, ok
}

func (t *memTx) commit() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id, b := range t.writes {
		t.store.bookings[id] = b
	}
	t.store.jobs = append(t.store.jobs, t.jobs...)
}

type txBookings struct{ tx *memTx }

func (r txBookings) Create(ctx context.Context, b *booking.Booking) error {
	if _, ok := r.tx.lookup(b.ID()); ok {
		return infra.NewRepoErr(infra.KindDuplicateKey, "booking already exists", nil)
	}
	s := r.tx.store
	s.mu.RLock()
	_, hasResource := s.resources[b.ResourceID()]
	_, hasCustomer := s.customers[b.Customer().ID]
	_, hasService := s.services[b.Service().ID]
	s.mu.RUnlock()
	if !hasResource || !hasCustomer || !hasService {
		return infra.NewRepoErr(infra.KindForeignKeyViolated, "booking references unknown catalog entry", nil)
	}
	r.tx.writes[b.ID()] = b.Clone()
	return nil
}

func (r txBookings) GetForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, ok := r.tx.lookup(id)
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found", nil)
	}
	return b.Clone(), nil
}

func (r txBookings) Update(ctx context.Context, b *booking.Booking) error {
	if _, ok := r.tx.lookup(b.ID()); !ok {
		return infra.NewRepoErr(infra.KindNotFound, "booking not found", nil)
	}
	r.tx.writes[b.ID()] = b.Clone()
	return nil
}

func (r txBookings) ActiveOverlapping(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*booking.Booking, error) {
	s := r.tx.store
	s.mu.RLock()
	merged := make(map[uuid.UUID]*booking.Booking, len(s.bookings))
	for id, b := range s.bookings {
		merged[id] = b
	}
	s.mu.RUnlock()
	for id, b := range r.tx.writes {
		merged[id] = b
	}

	var out []*booking.Booking
	for _, b := range merged {
		if b.ResourceID() != resourceID || !b.IsActive() {
			continue
		}
		if b.ScheduledStart().Before(to) && b.ScheduledEnd().After(from) {
			out = append(out, b.Clone())
		}
	}
	sortBookings(out)
	return out, nil
}

type txNotifications struct{ tx *memTx }

func (r txNotifications) CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	now := r.tx.store.clock.Now()
	r.tx.jobs = append(r.tx.jobs, &readmodel.NotificationJobRM{
		ID:        uuid.New(),
		Kind:      kind,
		Topic:     topic,
		Payload:   slices.Clone(payload),
		RunAt:     runAt,
		Status:    shared.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return nil
}

// ================================================================================
// Reads
// ================================================================================

type commandReads struct{ s *Store }

func (r commandReads) BookingByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return bookingReads(r).FindByID(ctx, id)
}

func (r commandReads) ResourceByID(ctx context.Context, id uuid.UUID) (*shared.ResourceSnapshot, error) {
	res, err := resourceReads(r).FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	w := res.Window()
	return &shared.ResourceSnapshot{
		ID:          res.ID(),
		Name:        res.Name(),
		TimeZone:    res.TimeZone(),
		OpensAt:     w.OpensAt,
		ClosesAt:    w.ClosesAt,
		LeadTimeMin: res.LeadTimeMin(),
	}, nil
}

func (r commandReads) CustomerByID(ctx context.Context, id uuid.UUID) (*shared.CustomerSnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "customer not found", nil)
	}
	return &c, nil
}

func (r commandReads) ServiceByID(ctx context.Context, id uuid.UUID) (*shared.ServiceSnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	svc, ok := r.s.services[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "service not found", nil)
	}
	return &svc, nil
}

type bookingReads struct{ s *Store }

func (r bookingReads) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found", nil)
	}
	return b.Clone(), nil
}

func (r bookingReads) FindInRange(ctx context.Context, q queries.RangeQuery) ([]*booking.Booking, error) {
	r.s.mu.RLock()
	out := make([]*booking.Booking, 0, len(r.s.bookings))
	for _, b := range r.s.bookings {
		if q.ResourceID != nil && b.ResourceID() != *q.ResourceID {
			continue
		}
		if q.From != nil && !b.ScheduledEnd().After(*q.From) {
			continue
		}
		if q.To != nil && !b.ScheduledStart().Before(*q.To) {
			continue
		}
		out = append(out, b.Clone())
	}
	r.s.mu.RUnlock()
	sortBookings(out)
	return out, nil
}

type resourceReads struct{ s *Store }

func (r resourceReads) FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res, ok := r.s.resources[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "resource not found", nil)
	}
	return res, nil
}

func sortBookings(bs []*booking.Booking) {
	slices.SortFunc(bs, func(a, b *booking.Booking) int {
		if c := a.ScheduledStart().Compare(b.ScheduledStart()); c != 0 {
			return c
		}
		aid, bid := a.ID(), b.ID()
		return bytes.Compare(aid[:], bid[:])
	})
}
