package validators

import (
	"testing"
)

type createPromoInput struct {
	Name           string `validate:"required"`
	Description    string `validate:"required"`
	CostPoints     int64  `validate:"min=0"`
	ExpirationDays int    `validate:"omitempty,min=1"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	valid := createPromoInput{Name: "Coffee", Description: "One free coffee", CostPoints: 100, ExpirationDays: 30}
	if errs := ValidateStruct(valid); len(errs) != 0 {
		t.Errorf("valid input produced errors: %v", errs)
	}

	invalid := createPromoInput{CostPoints: -1}
	errs := ValidateStruct(invalid)
	if len(errs) != 3 {
		t.Fatalf("len(errs) = %d, want 3: %v", len(errs), errs)
	}

	fields := errs.FieldMap()
	for _, field := range []string{"Name", "Description", "CostPoints"} {
		if _, ok := fields[field]; !ok {
			t.Errorf("missing error for field %s in %v", field, fields)
		}
	}
}

type statusInput struct {
	Status string `validate:"promo_status"`
}

func TestPromoStatusTag(t *testing.T) {
	t.Parallel()

	for _, status := range []string{"ACTIVE", "USED", "EXPIRED", "REVOKED", "ALL", ""} {
		if errs := ValidateStruct(statusInput{Status: status}); len(errs) != 0 {
			t.Errorf("status %q rejected: %v", status, errs)
		}
	}
	if errs := ValidateStruct(statusInput{Status: "PENDING"}); len(errs) == 0 {
		t.Error("status PENDING accepted")
	}
}

type idInput struct {
	ID string `validate:"object_id"`
}

func TestObjectIDTag(t *testing.T) {
	t.Parallel()

	if errs := ValidateStruct(idInput{ID: "507f1f77bcf86cd799439011"}); len(errs) != 0 {
		t.Errorf("valid object id rejected: %v", errs)
	}
	if errs := ValidateStruct(idInput{ID: "not-an-id"}); len(errs) == 0 {
		t.Error("invalid object id accepted")
	}
}
