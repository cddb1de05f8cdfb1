// Package memstore хранилище в памяти с транзакциями для тестов usecase.
// Транзакции сериализуются одним мьютексом, что эквивалентно блокировке строк,
// а ошибка внутри транзакции откатывает снимок состояния.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/shopspring/decimal"
)

type state struct {
	seq        int64
	orders     map[int64]entity.Order
	deliveries map[int64]entity.OrderDelivery
	history    []entity.OrderStatusChange
	disputes   map[int64]entity.Dispute
	messages   map[int64]entity.DisputeMessage
	reviews    map[int64]entity.Review
	replies    map[int64]entity.ReviewReply
	proposals  map[int64]entity.CustomProposal
	gigs       map[int64]entity.Gig
	packages   map[int64]entity.GigPackage
}

func newState() *state {
	return &state{
		orders:     map[int64]entity.Order{},
		deliveries: map[int64]entity.OrderDelivery{},
		disputes:   map[int64]entity.Dispute{},
		messages:   map[int64]entity.DisputeMessage{},
		reviews:    map[int64]entity.Review{},
		replies:    map[int64]entity.ReviewReply{},
		proposals:  map[int64]entity.CustomProposal{},
		gigs:       map[int64]entity.Gig{},
		packages:   map[int64]entity.GigPackage{},
	}
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		seq:        s.seq,
		orders:     cloneMap(s.orders),
		deliveries: cloneMap(s.deliveries),
		history:    append([]entity.OrderStatusChange(nil), s.history...),
		disputes:   cloneMap(s.disputes),
		messages:   cloneMap(s.messages),
		reviews:    cloneMap(s.reviews),
		replies:    cloneMap(s.replies),
		proposals:  cloneMap(s.proposals),
		gigs:       cloneMap(s.gigs),
		packages:   cloneMap(s.packages),
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// Store реализует repository.Transactor.
type Store struct {
	mu sync.Mutex
	st *state
	// FailOn позволяет тесту сломать конкретную операцию, например "orders.update".
	FailOn map[string]error
}

func New() *Store {
	return &Store{st: newState(), FailOn: map[string]error{}}
}

var _ repository.Transactor = (*Store)(nil)

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(ctx, &view{store: s, inTx: true}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Orders() repository.OrderRepository       { return &orderRepo{view{store: s}} }
func (s *Store) Disputes() repository.DisputeRepository   { return &disputeRepo{view{store: s}} }
func (s *Store) Reviews() repository.ReviewRepository     { return &reviewRepo{view{store: s}} }
func (s *Store) Proposals() repository.ProposalRepository { return &proposalRepo{view{store: s}} }
func (s *Store) Gigs() repository.GigRepository           { return &gigRepo{view{store: s}} }

type view struct {
	store *Store
	inTx  bool
}

func (v view) Orders() repository.OrderRepository       { return &orderRepo{v} }
func (v view) Disputes() repository.DisputeRepository   { return &disputeRepo{v} }
func (v view) Reviews() repository.ReviewRepository     { return &reviewRepo{v} }
func (v view) Proposals() repository.ProposalRepository { return &proposalRepo{v} }
func (v view) Gigs() repository.GigRepository           { return &gigRepo{v} }

// acquire берёт мьютекс только вне транзакции: внутри он уже захвачен.
func (v view) acquire() func() {
	if v.inTx {
		return func() {}
	}
	v.store.mu.Lock()
	return v.store.mu.Unlock
}

func (v view) fail(op string) error {
	return v.store.FailOn[op]
}

// --- orders ---

type orderRepo struct{ view }

func (r *orderRepo) Create(_ context.Context, o *entity.Order) error {
	defer r.acquire()()
	if err := r.fail("orders.create"); err != nil {
		return err
	}
	o.ID = r.store.st.nextID()
	r.store.st.orders[o.ID] = *o
	return nil
}

func (r *orderRepo) Update(_ context.Context, o *entity.Order) error {
	defer r.acquire()()
	if err := r.fail("orders.update"); err != nil {
		return err
	}
	if _, ok := r.store.st.orders[o.ID]; !ok {
		return apperror.ErrOrderNotFound
	}
	r.store.st.orders[o.ID] = *o
	return nil
}

func (r *orderRepo) FindByID(_ context.Context, id int64) (*entity.Order, error) {
	defer r.acquire()()
	o, ok := r.store.st.orders[id]
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	return &o, nil
}

func (r *orderRepo) LockByID(ctx context.Context, id int64) (*entity.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepo) CreateDelivery(_ context.Context, d *entity.OrderDelivery) error {
	defer r.acquire()()
	if err := r.fail("orders.create_delivery"); err != nil {
		return err
	}
	d.ID = r.store.st.nextID()
	r.store.st.deliveries[d.ID] = *d
	return nil
}

func (r *orderRepo) ListDeliveries(_ context.Context, orderID int64) ([]*entity.OrderDelivery, error) {
	defer r.acquire()()
	var out []*entity.OrderDelivery
	for _, d := range r.store.st.deliveries {
		if d.OrderID == orderID {
			d := d
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *orderRepo) AddStatusChange(_ context.Context, c *entity.OrderStatusChange) error {
	defer r.acquire()()
	c.ID = r.store.st.nextID()
	r.store.st.history = append(r.store.st.history, *c)
	return nil
}

func (r *orderRepo) ListStatusChanges(_ context.Context, orderID int64) ([]*entity.OrderStatusChange, error) {
	defer r.acquire()()
	var out []*entity.OrderStatusChange
	for _, c := range r.store.st.history {
		if c.OrderID == orderID {
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

// --- disputes ---

type disputeRepo struct{ view }

func (r *disputeRepo) Create(_ context.Context, d *entity.Dispute) error {
	defer r.acquire()()
	for _, existing := range r.store.st.disputes {
		if existing.OrderID == d.OrderID {
			return apperror.ErrDisputeExists
		}
	}
	d.ID = r.store.st.nextID()
	r.store.st.disputes[d.ID] = *d
	return nil
}

func (r *disputeRepo) Update(_ context.Context, d *entity.Dispute) error {
	defer r.acquire()()
	if _, ok := r.store.st.disputes[d.ID]; !ok {
		return apperror.ErrDisputeNotFound
	}
	r.store.st.disputes[d.ID] = *d
	return nil
}

func (r *disputeRepo) FindByID(_ context.Context, id int64) (*entity.Dispute, error) {
	defer r.acquire()()
	d, ok := r.store.st.disputes[id]
	if !ok {
		return nil, apperror.ErrDisputeNotFound
	}
	return &d, nil
}

func (r *disputeRepo) LockByID(ctx context.Context, id int64) (*entity.Dispute, error) {
	return r.FindByID(ctx, id)
}

func (r *disputeRepo) FindByOrderID(_ context.Context, orderID int64) (*entity.Dispute, error) {
	defer r.acquire()()
	for _, d := range r.store.st.disputes {
		if d.OrderID == orderID {
			d := d
			return &d, nil
		}
	}
	return nil, apperror.ErrDisputeNotFound
}

func (r *disputeRepo) AddMessage(_ context.Context, m *entity.DisputeMessage) error {
	defer r.acquire()()
	if err := r.fail("disputes.add_message"); err != nil {
		return err
	}
	m.ID = r.store.st.nextID()
	r.store.st.messages[m.ID] = *m
	return nil
}

func (r *disputeRepo) ListMessages(_ context.Context, disputeID int64) ([]*entity.DisputeMessage, error) {
	defer r.acquire()()
	var out []*entity.DisputeMessage
	for _, m := range r.store.st.messages {
		if m.DisputeID == disputeID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// --- reviews ---

type reviewRepo struct{ view }

func (r *reviewRepo) Create(_ context.Context, rv *entity.Review) error {
	defer r.acquire()()
	for _, existing := range r.store.st.reviews {
		if existing.OrderID == rv.OrderID {
			return apperror.ErrReviewExists
		}
	}
	rv.ID = r.store.st.nextID()
	r.store.st.reviews[rv.ID] = *rv
	return nil
}

func (r *reviewRepo) Update(_ context.Context, rv *entity.Review) error {
	defer r.acquire()()
	if _, ok := r.store.st.reviews[rv.ID]; !ok {
		return apperror.ErrReviewNotFound
	}
	r.store.st.reviews[rv.ID] = *rv
	return nil
}

func (r *reviewRepo) Delete(_ context.Context, id int64) error {
	defer r.acquire()()
	if _, ok := r.store.st.reviews[id]; !ok {
		return apperror.ErrReviewNotFound
	}
	delete(r.store.st.reviews, id)
	for replyID, reply := range r.store.st.replies {
		if reply.ReviewID == id {
			delete(r.store.st.replies, replyID)
		}
	}
	return nil
}

func (r *reviewRepo) FindByID(_ context.Context, id int64) (*entity.Review, error) {
	defer r.acquire()()
	rv, ok := r.store.st.reviews[id]
	if !ok {
		return nil, apperror.ErrReviewNotFound
	}
	return &rv, nil
}

func (r *reviewRepo) LockByID(ctx context.Context, id int64) (*entity.Review, error) {
	return r.FindByID(ctx, id)
}

func (r *reviewRepo) FindByOrderID(_ context.Context, orderID int64) (*entity.Review, error) {
	defer r.acquire()()
	for _, rv := range r.store.st.reviews {
		if rv.OrderID == orderID {
			rv := rv
			return &rv, nil
		}
	}
	return nil, apperror.ErrReviewNotFound
}

func (r *reviewRepo) AggregateForGig(_ context.Context, gigID int64) (entity.RatingAggregate, error) {
	defer r.acquire()()
	sum, count := 0, 0
	for _, rv := range r.store.st.reviews {
		if rv.GigID == gigID && rv.IsActive {
			sum += rv.Rating
			count++
		}
	}
	if count == 0 {
		return entity.RatingAggregate{Average: decimal.Zero}, nil
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(count))).Round(2)
	return entity.RatingAggregate{Average: avg, Count: count}, nil
}

func (r *reviewRepo) CreateReply(_ context.Context, reply *entity.ReviewReply) error {
	defer r.acquire()()
	for _, existing := range r.store.st.replies {
		if existing.ReviewID == reply.ReviewID {
			return apperror.ErrReplyExists
		}
	}
	reply.ID = r.store.st.nextID()
	r.store.st.replies[reply.ID] = *reply
	return nil
}

func (r *reviewRepo) UpdateReply(_ context.Context, reply *entity.ReviewReply) error {
	defer r.acquire()()
	if _, ok := r.store.st.replies[reply.ID]; !ok {
		return apperror.ErrReplyNotFound
	}
	r.store.st.replies[reply.ID] = *reply
	return nil
}

func (r *reviewRepo) DeleteReply(_ context.Context, id int64) error {
	defer r.acquire()()
	if _, ok := r.store.st.replies[id]; !ok {
		return apperror.ErrReplyNotFound
	}
	delete(r.store.st.replies, id)
	return nil
}

func (r *reviewRepo) FindReplyByReviewID(_ context.Context, reviewID int64) (*entity.ReviewReply, error) {
	defer r.acquire()()
	for _, reply := range r.store.st.replies {
		if reply.ReviewID == reviewID {
			reply := reply
			return &reply, nil
		}
	}
	return nil, apperror.ErrReplyNotFound
}

// --- proposals ---

type proposalRepo struct{ view }

func (r *proposalRepo) Create(_ context.Context, p *entity.CustomProposal) error {
	defer r.acquire()()
	p.ID = r.store.st.nextID()
	r.store.st.proposals[p.ID] = *p
	return nil
}

func (r *proposalRepo) Update(_ context.Context, p *entity.CustomProposal) error {
	defer r.acquire()()
	if _, ok := r.store.st.proposals[p.ID]; !ok {
		return apperror.ErrProposalNotFound
	}
	r.store.st.proposals[p.ID] = *p
	return nil
}

func (r *proposalRepo) FindByID(_ context.Context, id int64) (*entity.CustomProposal, error) {
	defer r.acquire()()
	p, ok := r.store.st.proposals[id]
	if !ok {
		return nil, apperror.ErrProposalNotFound
	}
	return &p, nil
}

func (r *proposalRepo) LockByID(ctx context.Context, id int64) (*entity.CustomProposal, error) {
	return r.FindByID(ctx, id)
}

func (r *proposalRepo) ExpirePending(_ context.Context, now time.Time) (int64, error) {
	defer r.acquire()()
	var n int64
	for id, p := range r.store.st.proposals {
		if p.ExpireIfDue(now) {
			r.store.st.proposals[id] = p
			n++
		}
	}
	return n, nil
}

// --- gigs ---

type gigRepo struct{ view }

func (r *gigRepo) FindByID(_ context.Context, id int64) (*entity.Gig, error) {
	defer r.acquire()()
	g, ok := r.store.st.gigs[id]
	if !ok {
		return nil, apperror.ErrGigNotFound
	}
	return &g, nil
}

func (r *gigRepo) LockByID(ctx context.Context, id int64) (*entity.Gig, error) {
	return r.FindByID(ctx, id)
}

func (r *gigRepo) FindPackage(_ context.Context, gigID int64, t valueobject.PackageType) (*entity.GigPackage, error) {
	defer r.acquire()()
	for _, p := range r.store.st.packages {
		if p.GigID == gigID && p.PackageType == t {
			p := p
			return &p, nil
		}
	}
	return nil, apperror.ErrPackageNotFound
}

func (r *gigRepo) UpdateRating(_ context.Context, gigID int64, agg entity.RatingAggregate) error {
	defer r.acquire()()
	g, ok := r.store.st.gigs[gigID]
	if !ok {
		return apperror.ErrGigNotFound
	}
	g.RatingAverage = agg.Average
	g.ReviewsCount = agg.Count
	r.store.st.gigs[gigID] = g
	return nil
}

func (r *gigRepo) IncrementOrdersCount(_ context.Context, gigID int64) error {
	defer r.acquire()()
	g, ok := r.store.st.gigs[gigID]
	if !ok {
		return apperror.ErrGigNotFound
	}
	g.OrdersCount++
	r.store.st.gigs[gigID] = g
	return nil
}

// --- наполнение и проверки для тестов ---

func (s *Store) SeedGig(g entity.Gig, packages ...entity.GigPackage) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == 0 {
		g.ID = s.st.nextID()
	}
	s.st.gigs[g.ID] = g
	for _, p := range packages {
		p.ID = s.st.nextID()
		p.GigID = g.ID
		s.st.packages[p.ID] = p
	}
	return g.ID
}

func (s *Store) SeedOrder(o entity.Order) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.st.nextID()
	s.st.orders[o.ID] = o
	return o.ID
}

func (s *Store) SeedDispute(d entity.Dispute) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.st.nextID()
	s.st.disputes[d.ID] = d
	return d.ID
}

func (s *Store) SeedReview(rv entity.Review) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	rv.ID = s.st.nextID()
	s.st.reviews[rv.ID] = rv
	return rv.ID
}

func (s *Store) SeedProposal(p entity.CustomProposal) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.st.nextID()
	s.st.proposals[p.ID] = p
	return p.ID
}

func (s *Store) Order(id int64) entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.orders[id]
}

func (s *Store) Gig(id int64) entity.Gig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.gigs[id]
}

func (s *Store) SetGigActive(id int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.st.gigs[id]
	g.IsActive = active
	s.st.gigs[id] = g
}

func (s *Store) Dispute(id int64) entity.Dispute {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.disputes[id]
}

func (s *Store) Proposal(id int64) entity.CustomProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.proposals[id]
}

func (s *Store) CountOrders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.orders)
}

func (s *Store) CountDeliveries(orderID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.st.deliveries {
		if d.OrderID == orderID {
			n++
		}
	}
	return n
}

func (s *Store) CountDisputes(orderID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.st.disputes {
		if d.OrderID == orderID {
			n++
		}
	}
	return n
}

func (s *Store) CountReviews(orderID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rv := range s.st.reviews {
		if rv.OrderID == orderID {
			n++
		}
	}
	return n
}

func (s *Store) Messages(disputeID int64) []entity.DisputeMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.DisputeMessage
	for _, m := range s.st.messages {
		if m.DisputeID == disputeID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) History(orderID int64) []entity.OrderStatusChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.OrderStatusChange
	for _, c := range s.st.history {
		if c.OrderID == orderID {
			out = append(out, c)
		}
	}
	return out
}
