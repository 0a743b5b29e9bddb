package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"greencycle/internal/models"
	"greencycle/internal/repositories/interfaces"
	"greencycle/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for the Mongo collections. It enforces
// the same uniqueness rules as the real indexes (unique redemption code,
// unique live (user, promo) pair) so the concurrency behaviour of the
// services is observable in tests.
type memStore struct {
	mu          sync.Mutex
	txMu        sync.Mutex
	users       map[primitive.ObjectID]*models.User
	promos      map[primitive.ObjectID]*models.PromoCode
	redemptions map[primitive.ObjectID]*models.Redemption
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[primitive.ObjectID]*models.User),
		promos:      make(map[primitive.ObjectID]*models.PromoCode),
		redemptions: make(map[primitive.ObjectID]*models.Redemption),
	}
}

func (s *memStore) addUser(points int64) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := primitive.NewObjectID()
	s.users[id] = &models.User{ID: id, Points: points}
	return id
}

func (s *memStore) addPromo(promo *models.PromoCode) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if promo.ID.IsZero() {
		promo.ID = primitive.NewObjectID()
	}
	s.promos[promo.ID] = promo
	return promo.ID
}

func (s *memStore) userPoints(id primitive.ObjectID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Points
}

func (s *memStore) redemption(id primitive.ObjectID) *models.Redemption {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *s.redemptions[id]
	return &r
}

func (s *memStore) redemptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redemptions)
}

func (s *memStore) snapshot() *memStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := newMemStore()
	for id, u := range s.users {
		cu := *u
		clone.users[id] = &cu
	}
	for id, p := range s.promos {
		cp := *p
		clone.promos[id] = &cp
	}
	for id, r := range s.redemptions {
		cr := *r
		clone.redemptions[id] = &cr
	}
	return clone
}

func (s *memStore) restore(snap *memStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.promos = snap.promos
	s.redemptions = snap.redemptions
}

// memTxManager serialises transactions and rolls the store back when fn
// fails, matching the all-or-nothing behaviour of mongo sessions.
type memTxManager struct {
	store *memStore
}

func (m *memTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	snap := m.store.snapshot()
	result, err := fn(ctx)
	if err != nil {
		m.store.restore(snap)
		return nil, err
	}
	return result, nil
}

type memUserRepo struct {
	store *memStore
}

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.store.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (r *memUserRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[id]; !ok {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *memUserRepo) GetPoints(ctx context.Context, id primitive.ObjectID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return 0, interfaces.ErrNotFound
	}
	return user.Points, nil
}

func (r *memUserRepo) DebitPoints(ctx context.Context, id primitive.ObjectID, amount int64) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok || user.Points < amount {
		return 0, interfaces.ErrNotFound
	}
	user.Points -= amount
	return user.Points, nil
}

func (r *memUserRepo) CreditPoints(ctx context.Context, id primitive.ObjectID, amount int64) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return 0, interfaces.ErrNotFound
	}
	user.Points += amount
	return user.Points, nil
}

type memPromoRepo struct {
	store *memStore
}

func (r *memPromoRepo) Create(ctx context.Context, promo *models.PromoCode) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.promos {
		if existing.StaticCode == promo.StaticCode {
			return interfaces.ErrDuplicate
		}
	}
	if promo.ID.IsZero() {
		promo.ID = primitive.NewObjectID()
	}
	promo.CreatedAt = time.Now()
	promo.UpdatedAt = time.Now()
	p := *promo
	r.store.promos[promo.ID] = &p
	return nil
}

func (r *memPromoRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PromoCode, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	promo, ok := r.store.promos[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	p := *promo
	return &p, nil
}

func (r *memPromoRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	promo, ok := r.store.promos[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	for field, value := range updates {
		switch field {
		case "name":
			promo.Name = value.(string)
		case "icon":
			promo.Icon = value.(string)
		case "cost_points":
			promo.CostPoints = value.(int64)
		case "description":
			promo.Description = value.(string)
		case "expiration_days":
			promo.ExpirationDays = value.(int)
		case "locations":
			promo.Locations = value.([]string)
		case "is_active":
			promo.IsActive = value.(bool)
		}
	}
	promo.UpdatedAt = time.Now()
	return nil
}

func (r *memPromoRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.promos[id]; !ok {
		return interfaces.ErrNotFound
	}
	delete(r.store.promos, id)
	return nil
}

func (r *memPromoRepo) ListActive(ctx context.Context) ([]*models.PromoCode, error) {
	return r.list(true)
}

func (r *memPromoRepo) List(ctx context.Context, includeInactive bool) ([]*models.PromoCode, error) {
	return r.list(!includeInactive)
}

func (r *memPromoRepo) list(activeOnly bool) ([]*models.PromoCode, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var promos []*models.PromoCode
	for _, promo := range r.store.promos {
		if activeOnly && !promo.IsActive {
			continue
		}
		p := *promo
		promos = append(promos, &p)
	}
	sort.Slice(promos, func(i, j int) bool {
		return promos[i].ID.Hex() < promos[j].ID.Hex()
	})
	return promos, nil
}

type memRedemptionRepo struct {
	store *memStore
}

func isLive(status models.RedemptionStatus) bool {
	return status == models.RedemptionStatusActive || status == models.RedemptionStatusUsed
}

func (r *memRedemptionRepo) Create(ctx context.Context, redemption *models.Redemption) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.redemptions {
		if existing.Code == redemption.Code {
			return interfaces.ErrDuplicate
		}
		if existing.UserID == redemption.UserID &&
			existing.PromoCodeID == redemption.PromoCodeID &&
			isLive(existing.Status) {
			return interfaces.ErrDuplicate
		}
	}
	if redemption.ID.IsZero() {
		redemption.ID = primitive.NewObjectID()
	}
	rec := *redemption
	r.store.redemptions[redemption.ID] = &rec
	return nil
}

func (r *memRedemptionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Redemption, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	redemption, ok := r.store.redemptions[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	rec := *redemption
	return &rec, nil
}

func (r *memRedemptionRepo) ListByUser(ctx context.Context, userID primitive.ObjectID, status *models.RedemptionStatus) ([]*models.Redemption, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []*models.Redemption
	for _, redemption := range r.store.redemptions {
		if redemption.UserID != userID {
			continue
		}
		if status != nil && redemption.Status != *status {
			continue
		}
		rec := *redemption
		result = append(result, &rec)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RedeemedAt.After(result[j].RedeemedAt)
	})
	return result, nil
}

func (r *memRedemptionRepo) HasActiveOrUsed(ctx context.Context, userID, promoCodeID primitive.ObjectID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, redemption := range r.store.redemptions {
		if redemption.UserID == userID && redemption.PromoCodeID == promoCodeID && isLive(redemption.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRedemptionRepo) ExistsForPromoCode(ctx context.Context, promoCodeID primitive.ObjectID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, redemption := range r.store.redemptions {
		if redemption.PromoCodeID == promoCodeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRedemptionRepo) RedeemedPromoCodeIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, redemption := range r.store.redemptions {
		if redemption.UserID != userID || !isLive(redemption.Status) {
			continue
		}
		if _, ok := seen[redemption.PromoCodeID]; ok {
			continue
		}
		seen[redemption.PromoCodeID] = struct{}{}
		ids = append(ids, redemption.PromoCodeID)
	}
	return ids, nil
}

func (r *memRedemptionRepo) transition(id primitive.ObjectID, apply func(*models.Redemption)) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	redemption, ok := r.store.redemptions[id]
	if !ok || redemption.Status != models.RedemptionStatusActive {
		return false, nil
	}
	apply(redemption)
	return true, nil
}

func (r *memRedemptionRepo) MarkUsed(ctx context.Context, id primitive.ObjectID, location string, usedAt time.Time) (bool, error) {
	return r.transition(id, func(redemption *models.Redemption) {
		redemption.Status = models.RedemptionStatusUsed
		redemption.UsedAt = &usedAt
		redemption.UsedLocation = location
	})
}

func (r *memRedemptionRepo) MarkExpired(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return r.transition(id, func(redemption *models.Redemption) {
		redemption.Status = models.RedemptionStatusExpired
	})
}

func (r *memRedemptionRepo) MarkRevoked(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return r.transition(id, func(redemption *models.Redemption) {
		redemption.Status = models.RedemptionStatusRevoked
	})
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text", Output: "stdout"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return log
}

// fixture bundles a store with services wired against it.
type fixture struct {
	store       *memStore
	userRepo    *memUserRepo
	promoRepo   *memPromoRepo
	redemptions *memRedemptionRepo
	promoSvc    PromoService
	ledger      RedemptionService
	points      PointsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	userRepo := &memUserRepo{store: store}
	promoRepo := &memPromoRepo{store: store}
	redemptionRepo := &memRedemptionRepo{store: store}
	log := newTestLogger(t)
	tx := &memTxManager{store: store}

	return &fixture{
		store:       store,
		userRepo:    userRepo,
		promoRepo:   promoRepo,
		redemptions: redemptionRepo,
		promoSvc:    NewPromoService(promoRepo, redemptionRepo, userRepo, log),
		ledger:      NewRedemptionService(tx, redemptionRepo, promoRepo, userRepo, log),
		points:      NewPointsService(userRepo, log),
	}
}

// ledgerAt returns a redemption service whose clock is pinned to now.
func (f *fixture) ledgerAt(t *testing.T, now func() time.Time) RedemptionService {
	t.Helper()
	svc := NewRedemptionService(&memTxManager{store: f.store}, f.redemptions, f.promoRepo, f.userRepo, newTestLogger(t))
	svc.(*redemptionService).now = now
	return svc
}
