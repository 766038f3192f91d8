// Package memory is an in-process store with the same contracts as the Postgres
// repositories. It backs STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/google/uuid"
)

type txKey struct{}

type state struct {
	clients   map[int64]model.Client
	bookings  map[int64]model.Booking
	purchases map[uuid.UUID]model.Purchase
	checkouts map[string]model.CheckoutSession
	nextID    int64
}

func (s *state) clone() *state {
	c := &state{
		clients:   make(map[int64]model.Client, len(s.clients)),
		bookings:  make(map[int64]model.Booking, len(s.bookings)),
		purchases: make(map[uuid.UUID]model.Purchase, len(s.purchases)),
		checkouts: make(map[string]model.CheckoutSession, len(s.checkouts)),
		nextID:    s.nextID,
	}
	for k, v := range s.clients {
		c.clients[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.purchases {
		c.purchases[k] = v
	}
	for k, v := range s.checkouts {
		c.checkouts[k] = v
	}
	return c
}

// Store keeps all tables behind one mutex. A transaction holds the mutex for its
// whole duration and restores a snapshot when the function fails.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		st: &state{
			clients:   make(map[int64]model.Client),
			bookings:  make(map[int64]model.Booking),
			purchases: make(map[uuid.UUID]model.Purchase),
			checkouts: make(map[string]model.CheckoutSession),
		},
		now: time.Now,
	}
}

// SetClock overrides the time source used for created_at/updated_at
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// InTx runs fn atomically. Nested calls join the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// lock takes the store mutex unless ctx is already inside InTx
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) id() int64 {
	s.st.nextID++
	return s.st.nextID
}

func (s *Store) Clients() *ClientRepository {
	return &ClientRepository{s: s}
}

func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{s: s}
}

func (s *Store) Purchases() *PurchaseRepository {
	return &PurchaseRepository{s: s}
}

func (s *Store) Checkouts() *CheckoutRepository {
	return &CheckoutRepository{s: s}
}

// ClientRepository mirrors repository.ClientRepository
type ClientRepository struct {
	s *Store
}

func (r *ClientRepository) Upsert(ctx context.Context, client *model.Client) error {
	defer r.s.lock(ctx)()

	for id, c := range r.s.st.clients {
		if strings.EqualFold(c.Email, client.Email) {
			c.Name = client.Name
			c.Phone = client.Phone
			c.UpdatedAt = r.s.now()
			r.s.st.clients[id] = c
			*client = c
			return nil
		}
	}

	now := r.s.now()
	c := model.Client{
		ID:        r.s.id(),
		Email:     client.Email,
		Name:      client.Name,
		Phone:     client.Phone,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.st.clients[c.ID] = c
	*client = c
	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*model.Client, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.st.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *ClientRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Client, error) {
	return r.GetByID(ctx, id)
}

func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*model.Client, error) {
	defer r.s.lock(ctx)()

	for _, c := range r.s.st.clients {
		if strings.EqualFold(c.Email, email) {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]*model.Client, error) {
	defer r.s.lock(ctx)()

	clients := make([]*model.Client, 0, len(r.s.st.clients))
	for _, c := range r.s.st.clients {
		c := c
		clients = append(clients, &c)
	}
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].Name != clients[j].Name {
			return clients[i].Name < clients[j].Name
		}
		return clients[i].Email < clients[j].Email
	})
	return clients, nil
}

func (r *ClientRepository) UpdateCounters(ctx context.Context, client *model.Client, expectedVersion int64) (bool, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.st.clients[client.ID]
	if !ok || c.Version != expectedVersion {
		return false, nil
	}

	c.WeightliftingClassesRemaining = client.WeightliftingClassesRemaining
	c.PersonalTrainingSessionsRemaining = client.PersonalTrainingSessionsRemaining
	c.Version++
	c.UpdatedAt = r.s.now()
	r.s.st.clients[c.ID] = c

	client.Version = c.Version
	client.UpdatedAt = c.UpdatedAt
	return true, nil
}

// BookingRepository mirrors repository.BookingRepository
type BookingRepository struct {
	s *Store
}

func (r *BookingRepository) withEmail(b model.Booking) model.Booking {
	if c, ok := r.s.st.clients[b.ClientID]; ok {
		b.UserID = c.Email
	}
	return b
}

func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	defer r.s.lock(ctx)()

	booking.ID = r.s.id()
	booking.CreatedAt = r.s.now()
	if len(booking.Date) > 10 {
		booking.Date = booking.Date[:10]
	}
	r.s.st.bookings[booking.ID] = *booking
	*booking = r.withEmail(*booking)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	defer r.s.lock(ctx)()

	b, ok := r.s.st.bookings[id]
	if !ok {
		return nil, nil
	}
	b = r.withEmail(b)
	return &b, nil
}

func (r *BookingRepository) ListByClient(ctx context.Context, clientID int64) ([]model.Booking, error) {
	defer r.s.lock(ctx)()

	bookings := []model.Booking{}
	for _, b := range r.s.st.bookings {
		if b.ClientID == clientID {
			bookings = append(bookings, r.withEmail(b))
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].ID > bookings[j].ID
	})
	return bookings, nil
}

func (r *BookingRepository) Cancel(ctx context.Context, id int64, at time.Time) (bool, error) {
	defer r.s.lock(ctx)()

	b, ok := r.s.st.bookings[id]
	if !ok || b.IsCancelled() {
		return false, nil
	}
	b.Status = model.BookingStatusCancelled
	b.CancelledAt = &at
	r.s.st.bookings[id] = b
	return true, nil
}

func (r *BookingRepository) CountActiveGroup(ctx context.Context, clientID int64) (int, error) {
	defer r.s.lock(ctx)()

	n := 0
	for _, b := range r.s.st.bookings {
		if b.ClientID == clientID && !b.IsCancelled() && !b.IsPrivate() {
			n++
		}
	}
	return n, nil
}

// PurchaseRepository mirrors repository.PurchaseRepository
type PurchaseRepository struct {
	s *Store
}

func (r *PurchaseRepository) withEmail(p model.Purchase) model.Purchase {
	if c, ok := r.s.st.clients[p.ClientID]; ok {
		p.UserID = c.Email
	}
	return p
}

func (r *PurchaseRepository) Create(ctx context.Context, purchase *model.Purchase) error {
	defer r.s.lock(ctx)()

	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	if purchase.ExternalRef != nil {
		for _, p := range r.s.st.purchases {
			if p.ExternalRef != nil && *p.ExternalRef == *purchase.ExternalRef {
				return model.NewValidationError("external_ref", "already recorded")
			}
		}
	}
	purchase.UpdatedAt = r.s.now()
	r.s.st.purchases[purchase.ID] = *purchase
	*purchase = r.withEmail(*purchase)
	return nil
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.st.purchases[id]
	if !ok {
		return nil, nil
	}
	p = r.withEmail(p)
	return &p, nil
}

func (r *PurchaseRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	return r.GetByID(ctx, id)
}

func (r *PurchaseRepository) GetByExternalRef(ctx context.Context, ref string) (*model.Purchase, error) {
	defer r.s.lock(ctx)()

	for _, p := range r.s.st.purchases {
		if p.ExternalRef != nil && *p.ExternalRef == ref {
			p = r.withEmail(p)
			return &p, nil
		}
	}
	return nil, nil
}

func (r *PurchaseRepository) ListByClient(ctx context.Context, clientID int64) ([]model.Purchase, error) {
	defer r.s.lock(ctx)()

	purchases := []model.Purchase{}
	for _, p := range r.s.st.purchases {
		if p.ClientID == clientID {
			purchases = append(purchases, r.withEmail(p))
		}
	}
	sort.Slice(purchases, func(i, j int) bool {
		return purchases[i].PurchaseDate.After(purchases[j].PurchaseDate)
	})
	return purchases, nil
}

func (r *PurchaseRepository) Update(ctx context.Context, purchase *model.Purchase) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.st.purchases[purchase.ID]; !ok {
		return model.ErrNotFound
	}
	purchase.UpdatedAt = r.s.now()
	r.s.st.purchases[purchase.ID] = *purchase
	return nil
}

func (r *PurchaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.st.purchases[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.s.st.purchases, id)
	return nil
}

// CheckoutRepository mirrors repository.CheckoutRepository
type CheckoutRepository struct {
	s *Store
}

func (r *CheckoutRepository) Create(ctx context.Context, session *model.CheckoutSession) error {
	defer r.s.lock(ctx)()

	session.CreatedAt = r.s.now()
	r.s.st.checkouts[session.ID] = *session
	return nil
}

func (r *CheckoutRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.CheckoutSession, error) {
	defer r.s.lock(ctx)()

	cs, ok := r.s.st.checkouts[id]
	if !ok {
		return nil, nil
	}
	return &cs, nil
}

func (r *CheckoutRepository) MarkStatus(ctx context.Context, id, status string, at time.Time) error {
	defer r.s.lock(ctx)()

	cs, ok := r.s.st.checkouts[id]
	if !ok {
		return model.ErrNotFound
	}
	cs.Status = status
	cs.CompletedAt = &at
	r.s.st.checkouts[id] = cs
	return nil
}

func (r *CheckoutRepository) ListPending(ctx context.Context, before time.Time) ([]model.CheckoutSession, error) {
	defer r.s.lock(ctx)()

	var sessions []model.CheckoutSession
	for _, cs := range r.s.st.checkouts {
		if cs.Status == model.CheckoutStatusPending && cs.CreatedAt.Before(before) {
			sessions = append(sessions, cs)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}
