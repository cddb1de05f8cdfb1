// Package testutil общие подставные зависимости для тестов usecase и обработчиков.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
)

// Profiles справочник пользователей в памяти. Err имитирует недоступность.
type Profiles struct {
	mu       sync.Mutex
	profiles map[int64]*entity.Profile
	Err      error
	Calls    int
}

func NewProfiles(profiles ...*entity.Profile) *Profiles {
	p := &Profiles{profiles: map[int64]*entity.Profile{}}
	for _, profile := range profiles {
		p.profiles[profile.ID] = profile
	}
	return p
}

func (p *Profiles) GetUser(_ context.Context, id int64) (*entity.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}
	profile, ok := p.profiles[id]
	if !ok {
		return nil, gateway.ErrProfileNotFound
	}
	return profile, nil
}

func (p *Profiles) GetUsersBatch(_ context.Context, ids []int64) ([]*entity.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}
	var out []*entity.Profile
	for _, id := range ids {
		if profile, ok := p.profiles[id]; ok {
			out = append(out, profile)
		}
	}
	return out, nil
}

// Notifier запоминает отправленные уведомления.
type Notifier struct {
	mu   sync.Mutex
	sent []gateway.Notification
	Err  error
}

func (n *Notifier) Send(_ context.Context, notification gateway.Notification) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return "", n.Err
	}
	n.sent = append(n.sent, notification)
	return uuid.NewString(), nil
}

func (n *Notifier) Sent() []gateway.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]gateway.Notification(nil), n.sent...)
}

// Events группирует события по получателю.
func (n *Notifier) Events() map[int64][]string {
	out := map[int64][]string{}
	for _, s := range n.Sent() {
		out[s.UserID] = append(out[s.UserID], s.Event)
	}
	return out
}

// Recorder считает операции по результату.
type Recorder struct {
	mu     sync.Mutex
	Counts map[string]int
}

func (r *Recorder) RecordOperation(operation string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Counts == nil {
		r.Counts = map[string]int{}
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.Counts[operation+":"+result]++
}

func (r *Recorder) Count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Counts[key]
}

// FixedClock часы с ручной перемоткой.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Стандартные участники тестов.
const (
	SellerID    int64 = 10
	BuyerID     int64 = 20
	ModeratorID int64 = 30
	StrangerID  int64 = 40
)

func DefaultProfiles() *Profiles {
	return NewProfiles(
		&entity.Profile{ID: SellerID, Username: "seller"},
		&entity.Profile{ID: BuyerID, Username: "buyer"},
		&entity.Profile{ID: ModeratorID, Username: "moderator", Capabilities: []entity.Capability{entity.CapabilityModerator}},
		&entity.Profile{ID: StrangerID, Username: "stranger"},
	)
}

func ActiveGig() entity.Gig {
	return entity.Gig{SellerID: SellerID, Title: "Логотип для стартапа", IsActive: true}
}

func BasicPackage() entity.GigPackage {
	return entity.GigPackage{
		PackageType:  valueobject.PackageBasic,
		Price:        valueobject.MustMoney("150.00"),
		DeliveryTime: 5,
		Revisions:    2,
	}
}

// OrderIn заказ от BuyerID к SellerID в заданном статусе.
func OrderIn(gigID int64, status valueobject.OrderStatus, now time.Time) entity.Order {
	return entity.Order{
		BuyerID:      BuyerID,
		SellerID:     SellerID,
		GigID:        gigID,
		Title:        "Логотип для стартапа",
		Status:       status,
		Price:        valueobject.MustMoney("150.00"),
		DeliveryTime: 5,
		Deadline:     entity.DeadlineFor(now, 5),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// PendingProposal ожидающее предложение SellerID покупателю BuyerID.
func PendingProposal(gigID int64, expiresAt time.Time) entity.CustomProposal {
	return entity.CustomProposal{
		GigID:        gigID,
		SellerID:     SellerID,
		BuyerID:      BuyerID,
		Title:        "Фирменный стиль",
		Description:  "Логотип, визитки и бланк в едином стиле",
		Price:        valueobject.MustMoney("420.50"),
		DeliveryDays: 7,
		Revisions:    3,
		Status:       valueobject.ProposalStatusPending,
		ExpiresAt:    expiresAt,
		CreatedAt:    expiresAt.Add(-entity.DefaultProposalTTL),
	}
}
