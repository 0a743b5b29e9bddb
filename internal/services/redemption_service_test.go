package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"greencycle/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedPromo(f *fixture, cost int64, expirationDays int) *models.PromoCode {
	promo := &models.PromoCode{
		Name:           "Free Coffee",
		Icon:           models.DefaultPromoIcon,
		CostPoints:     cost,
		Description:    "One free coffee at partner cafes",
		ExpirationDays: expirationDays,
		Locations:      []string{"Main St Cafe"},
		StaticCode:     "FRE-1234",
		IsActive:       true,
	}
	f.store.addPromo(promo)
	return promo
}

func TestRedeemDebitsPointsAndMintsCode(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	userID := f.store.addUser(250)
	promo := seedPromo(f, 100, 30)

	response, err := f.ledger.Redeem(ctx, userID, promo.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}

	if response.RemainingPoints != 150 {
		t.Errorf("remaining points = %d, want 150", response.RemainingPoints)
	}
	if got := f.store.userPoints(userID); got != 150 {
		t.Errorf("persisted balance = %d, want 150", got)
	}

	redemption := response.Redemption
	if redemption.Status != models.RedemptionStatusActive {
		t.Errorf("status = %s, want ACTIVE", redemption.Status)
	}
	if !strings.HasPrefix(redemption.Code, "FRE-1234-") {
		t.Errorf("code %q does not extend the static code", redemption.Code)
	}
	if suffix := strings.TrimPrefix(redemption.Code, "FRE-1234-"); len(suffix) != 6 {
		t.Errorf("code suffix %q length = %d, want 6", suffix, len(suffix))
	}
	wantExpiry := redemption.RedeemedAt.AddDate(0, 0, 30)
	if !redemption.ExpirationDate.Equal(wantExpiry) {
		t.Errorf("expiration = %v, want %v", redemption.ExpirationDate, wantExpiry)
	}
	if redemption.PromoDetails.Name != promo.Name || redemption.PromoDetails.PointsCost != promo.CostPoints {
		t.Errorf("promo details snapshot = %+v", redemption.PromoDetails)
	}
}

func TestRedeemInsufficientBalance(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	userID := f.store.addUser(50)
	promo := seedPromo(f, 100, 30)

	_, err := f.ledger.Redeem(ctx, userID, promo.ID)
	var insufficient *InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error = %v, want InsufficientBalanceError", err)
	}
	if insufficient.Required != 100 || insufficient.Available != 50 {
		t.Errorf("required/available = %d/%d, want 100/50", insufficient.Required, insufficient.Available)
	}
	if got := f.store.userPoints(userID); got != 50 {
		t.Errorf("balance changed to %d on failed redeem", got)
	}
	if f.store.redemptionCount() != 0 {
		t.Error("redemption persisted despite failure")
	}
}

func TestRedeemInactivePromo(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	userID := f.store.addUser(500)
	promo := seedPromo(f, 100, 30)
	promo.IsActive = false
	f.store.addPromo(promo)

	_, err := f.ledger.Redeem(ctx, userID, promo.ID)
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("error = %v, want StateError", err)
	}
}

func TestRedeemUnknownPromoAndUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	userID := f.store.addUser(500)
	promo := seedPromo(f, 100, 30)

	var notFound *NotFoundError
	if _, err := f.ledger.Redeem(ctx, userID, primitive.NewObjectID()); !errors.As(err, &notFound) {
		t.Errorf("unknown promo: error = %v, want NotFoundError", err)
	}
	if _, err := f.ledger.Redeem(ctx, primitive.NewObjectID(), promo.ID); !errors.As(err, &notFound) {
		t.Errorf("unknown user: error = %v, want NotFoundError", err)
	}
}

func TestRedeemTwiceConflicts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	userID := f.store.addUser(500)
	promo := seedPromo(f, 100, 30)

	if _, err := f.ledger.Redeem(ctx, userID, promo.ID); err != nil {
		t.Fatalf("first redeem: %v", err)
	}

	_, err := f.ledger.Redeem(ctx, userID, promo.ID)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second redeem: error = %v, want ConflictError", err)
	}
	if got := f.store.userPoints(userID); got != 400 {
		t.Errorf("balance = %d, want 400 (only one debit)", got)
	}
}

func TestConcurrentRedeemsExactlyOneSucceeds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 16
	userID := f.store.addUser(1000)
	promo := seedPromo(f, 100, 30)

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.ledger.Redeem(ctx, userID, promo.ID)
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			var conflict *ConflictError
			if !errors.As(err, &conflict) {
				t.Errorf("unexpected error kind: %v", err)
				continue
			}
			conflicts++
		}
	}

	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if conflicts != attempts-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, attempts-1)
	}
	if got := f.store.userPoints(userID); got != 900 {
		t.Errorf("balance = %d, want 900 (single debit)", got)
	}
	if f.store.redemptionCount() != 1 {
		t.Errorf("redemption count = %d, want 1", f.store.redemptionCount())
	}
}

func TestMarkUsedTransitionsActiveRedemption(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	userID := f.store.addUser(500)
	promo := seedPromo(f, 100, 30)
	response, err := f.ledger.Redeem(ctx, userID, promo.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}

	used, err := f.ledger.MarkUsed(ctx, response.Redemption.ID, "Main St Cafe")
	if err != nil {
		t.Fatalf("mark used: %v", err)
	}
	if used.Status != models.RedemptionStatusUsed {
		t.Errorf("status = %s, want USED", used.Status)
	}
	if used.UsedAt == nil || used.UsedLocation != "Main St Cafe" {
		t.Errorf("used_at/location not recorded: %+v", used)
	}

	persisted := f.store.redemption(response.Redemption.ID)
	if persisted.Status != models.RedemptionStatusUsed {
		t.Errorf("persisted status = %s, want USED", persisted.Status)
	}
}

func TestMarkUsedOnUsedRedemption(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	userID := f.store.addUser(500)
	promo := seedPromo(f, 100, 30)
	response, _ := f.ledger.Redeem(ctx, userID, promo.ID)
	if _, err := f.ledger.MarkUsed(ctx, response.Redemption.ID, "Main St Cafe"); err != nil {
		t.Fatalf("first mark used: %v", err)
	}
	before := f.store.redemption(response.Redemption.ID)

	_, err := f.ledger.MarkUsed(ctx, response.Redemption.ID, "Elsewhere")
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("error = %v, want StateError", err)
	}
	if state.Status != models.RedemptionStatusUsed {
		t.Errorf("reported status = %s, want USED", state.Status)
	}

	after := f.store.redemption(response.Redemption.ID)
	if after.UsedLocation != before.UsedLocation || !after.UsedAt.Equal(*before.UsedAt) {
		t.Error("failed transition mutated the record")
	}
}

func TestMarkUsedAfterWindowExpiresLazily(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	userID := f.store.addUser(500)
	promo := seedPromo(f, 100, 30)
	response, err := f.ledger.Redeem(ctx, userID, promo.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}

	later := f.ledgerAt(t, func() time.Time {
		return response.Redemption.RedeemedAt.AddDate(0, 0, 31)
	})

	_, err = later.MarkUsed(ctx, response.Redemption.ID, "Main St Cafe")
	var expired *ExpiredError
	if !errors.As(err, &expired) {
		t.Fatalf("error = %v, want ExpiredError", err)
	}
	if expired.Code != response.Redemption.Code {
		t.Errorf("expired code = %q, want %q", expired.Code, response.Redemption.Code)
	}

	persisted := f.store.redemption(response.Redemption.ID)
	if persisted.Status != models.RedemptionStatusExpired {
		t.Errorf("persisted status = %s, want EXPIRED", persisted.Status)
	}

	// A second attempt finds the already-terminal record: plain state error,
	// no further mutation.
	_, err = later.MarkUsed(ctx, response.Redemption.ID, "Main St Cafe")
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("second attempt: error = %v, want StateError", err)
	}
}

func TestListForUserExpiresLazily(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	userID := f.store.addUser(1000)
	short := seedPromo(f, 100, 1)
	long := &models.PromoCode{
		Name: "Tote Bag", Icon: models.DefaultPromoIcon, CostPoints: 200,
		Description: "Reusable tote bag", ExpirationDays: 90,
		StaticCode: "TOT-9999", IsActive: true,
	}
	f.store.addPromo(long)

	first, err := f.ledger.Redeem(ctx, userID, short.ID)
	if err != nil {
		t.Fatalf("redeem short: %v", err)
	}
	second, err := f.ledger.Redeem(ctx, userID, long.ID)
	if err != nil {
		t.Fatalf("redeem long: %v", err)
	}

	later := f.ledgerAt(t, func() time.Time {
		return first.Redemption.RedeemedAt.AddDate(0, 0, 2)
	})

	redemptions, err := later.ListForUser(ctx, userID, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(redemptions) != 2 {
		t.Fatalf("len = %d, want 2", len(redemptions))
	}

	statuses := map[string]models.RedemptionStatus{}
	for _, redemption := range redemptions {
		statuses[redemption.Code] = redemption.Status
	}
	if statuses[first.Redemption.Code] != models.RedemptionStatusExpired {
		t.Errorf("short redemption status = %s, want EXPIRED", statuses[first.Redemption.Code])
	}
	if statuses[second.Redemption.Code] != models.RedemptionStatusActive {
		t.Errorf("long redemption status = %s, want ACTIVE", statuses[second.Redemption.Code])
	}

	// Listing again is idempotent.
	again, err := later.ListForUser(ctx, userID, nil)
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	for _, redemption := range again {
		if redemption.Code == first.Redemption.Code && redemption.Status != models.RedemptionStatusExpired {
			t.Errorf("expiration not sticky: status = %s", redemption.Status)
		}
	}
}

func TestListForUserStatusFilter(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	userID := f.store.addUser(1000)
	promo := seedPromo(f, 100, 30)
	response, err := f.ledger.Redeem(ctx, userID, promo.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if _, err := f.ledger.MarkUsed(ctx, response.Redemption.ID, ""); err != nil {
		t.Fatalf("mark used: %v", err)
	}

	active := models.RedemptionStatusActive
	got, err := f.ledger.ListForUser(ctx, userID, &active)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("active list len = %d, want 0", len(got))
	}

	used := models.RedemptionStatusUsed
	got, err = f.ledger.ListForUser(ctx, userID, &used)
	if err != nil {
		t.Fatalf("list used: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("used list len = %d, want 1", len(got))
	}
}

func TestRevokeIsTerminal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	userID := f.store.addUser(500)
	promo := seedPromo(f, 100, 30)
	response, err := f.ledger.Redeem(ctx, userID, promo.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}

	revoked, err := f.ledger.Revoke(ctx, response.Redemption.ID)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked.Status != models.RedemptionStatusRevoked {
		t.Errorf("status = %s, want REVOKED", revoked.Status)
	}

	var state *StateError
	if _, err := f.ledger.MarkUsed(ctx, response.Redemption.ID, "Main St Cafe"); !errors.As(err, &state) {
		t.Errorf("mark used after revoke: error = %v, want StateError", err)
	}
	if _, err := f.ledger.Revoke(ctx, response.Redemption.ID); !errors.As(err, &state) {
		t.Errorf("double revoke: error = %v, want StateError", err)
	}
}

// End-to-end: earn, redeem, use.
func TestRedeemAndUseScenario(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	userID := f.store.addUser(0)
	promo := seedPromo(f, 100, 30)

	if _, err := f.points.Grant(ctx, userID, 250); err != nil {
		t.Fatalf("grant: %v", err)
	}

	response, err := f.ledger.Redeem(ctx, userID, promo.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if response.RemainingPoints != 150 {
		t.Errorf("remaining = %d, want 150", response.RemainingPoints)
	}

	used, err := f.ledger.MarkUsed(ctx, response.Redemption.ID, "Main St Cafe")
	if err != nil {
		t.Fatalf("mark used: %v", err)
	}
	if used.Status != models.RedemptionStatusUsed {
		t.Errorf("status = %s, want USED", used.Status)
	}
	if got := f.store.userPoints(userID); got != 150 {
		t.Errorf("final balance = %d, want 150", got)
	}
}
