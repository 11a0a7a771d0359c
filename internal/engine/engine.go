// Package engine implements the donation fulfillment core: the inventory
// ledger operations, the fulfillment state machine, the volunteer-matching
// cascade, and the manual-assignment escape hatch. It is the operation
// surface the external UI/API layer calls into; every method takes a context
// carrying an auth.Principal and returns typed errors from the models
// package.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"donationFulfillment/internal/auth"
	"donationFulfillment/internal/clock"
	"donationFulfillment/internal/notify"
	"donationFulfillment/models"
	"donationFulfillment/repository"
)

const defaultOfferTTL = 5 * time.Minute

// Params bundles the engine's dependencies and tuning knobs.
type Params struct {
	Users      *repository.UserRepository
	Food       *repository.FoodRepository
	Volunteers *repository.VolunteerRepository
	Donations  *repository.DonationRepository
	Offers     *repository.OfferRepository

	Clock    clock.Clock
	Notifier notify.Notifier

	// OfferTTL is how long a volunteer has to respond before the offer
	// expires and the cascade advances. Defaults to 5 minutes.
	OfferTTL time.Duration
	// MaxActiveAssignments caps concurrent active deliveries per volunteer.
	// Defaults to 1.
	MaxActiveAssignments int
}

// Engine coordinates donations across the repositories. Workflows for
// different donations run concurrently; mutations of one donation's status
// and offer state serialize on a per-donation mutex, backed by guarded
// updates at the repository layer.
type Engine struct {
	users      *repository.UserRepository
	food       *repository.FoodRepository
	volunteers *repository.VolunteerRepository
	donations  *repository.DonationRepository
	offers     *repository.OfferRepository

	clock     clock.Clock
	notifier  notify.Notifier
	offerTTL  time.Duration
	maxActive int

	mu     sync.Mutex
	locks  map[int64]*donationLock // per-donation
	timers map[int64]*time.Timer   // per pending offer id
}

// donationLock is a refcounted per-donation mutex. The refcount tracks
// holders plus waiters so the map entry can be dropped once the last one
// leaves; unbounded donation IDs must not pin memory forever.
type donationLock struct {
	mu   sync.Mutex
	refs int
}

// New creates an Engine. Missing optional dependencies fall back to the
// system clock and the log notifier.
func New(p Params) *Engine {
	if p.Clock == nil {
		p.Clock = clock.NewSystem()
	}
	if p.Notifier == nil {
		p.Notifier = notify.NewLogNotifier()
	}
	if p.OfferTTL <= 0 {
		p.OfferTTL = defaultOfferTTL
	}
	if p.MaxActiveAssignments <= 0 {
		p.MaxActiveAssignments = 1
	}
	return &Engine{
		users:      p.Users,
		food:       p.Food,
		volunteers: p.Volunteers,
		donations:  p.Donations,
		offers:     p.Offers,
		clock:      p.Clock,
		notifier:   p.Notifier,
		offerTTL:   p.OfferTTL,
		maxActive:  p.MaxActiveAssignments,
		locks:      make(map[int64]*donationLock),
		timers:     make(map[int64]*time.Timer),
	}
}

// lockDonation acquires the donation's mutex and returns the unlock func.
func (e *Engine) lockDonation(id int64) func() {
	e.mu.Lock()
	l, ok := e.locks[id]
	if !ok {
		l = &donationLock{}
		e.locks[id] = l
	}
	l.refs++
	e.mu.Unlock()
	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, id)
		}
		e.mu.Unlock()
	}
}

// ResumeOffers re-arms expiry timers for every pending offer, typically
// after a restart. Offers already past their deadline expire immediately so
// the cascade keeps moving without anyone polling.
func (e *Engine) ResumeOffers(ctx context.Context) error {
	pending, err := e.offers.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending offers: %w", err)
	}
	now := e.clock.Now()
	for i := range pending {
		o := pending[i]
		exp, err := time.Parse(time.RFC3339, o.ExpiresAt)
		if err != nil {
			log.Printf("offer %d: bad expires_at %q, expiring now", o.ID, o.ExpiresAt)
			exp = now
		}
		delay := exp.Sub(now)
		if delay < 0 {
			delay = 0
		}
		e.armOfferTimer(o.ID, delay)
	}
	return nil
}

// Close stops all pending offer timers. Offers stay pending in storage and
// are picked up again by ResumeOffers.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
}

func (e *Engine) armOfferTimer(offerID int64, delay time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.timers[offerID]; ok {
		old.Stop()
	}
	e.timers[offerID] = time.AfterFunc(delay, func() { e.handleOfferTimeout(offerID) })
}

func (e *Engine) stopOfferTimer(offerID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.timers[offerID]; ok {
		t.Stop()
		delete(e.timers, offerID)
	}
}

// currentUser resolves the authenticated principal to its user row.
func (e *Engine) currentUser(ctx context.Context, p *auth.Principal) (*models.User, error) {
	u, err := e.users.GetByUsername(ctx, p.Name)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("user %q: %w", p.Name, models.ErrNotFound)
	}
	return u, nil
}

// currentVolunteer resolves the authenticated principal to its volunteer row.
func (e *Engine) currentVolunteer(ctx context.Context, p *auth.Principal) (*models.Volunteer, error) {
	v, err := e.volunteers.GetByName(ctx, p.Name)
	if err != nil {
		return nil, fmt.Errorf("get volunteer: %w", err)
	}
	if v == nil {
		return nil, fmt.Errorf("volunteer %q: %w", p.Name, models.ErrNotFound)
	}
	return v, nil
}

// getDonation fetches a donation or fails with ErrNotFound.
func (e *Engine) getDonation(ctx context.Context, id int64) (*models.Donation, error) {
	d, err := e.donations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get donation: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("donation %d: %w", id, models.ErrNotFound)
	}
	return d, nil
}
