package models

import (
	"testing"
	"time"
)

func TestRedemptionIsExpired(t *testing.T) {
	t.Parallel()

	expiry := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		status RedemptionStatus
		now    time.Time
		want   bool
	}{
		{"active before expiry", RedemptionStatusActive, expiry.Add(-time.Hour), false},
		{"active at expiry", RedemptionStatusActive, expiry, false},
		{"active after expiry", RedemptionStatusActive, expiry.Add(time.Second), true},
		{"used after expiry", RedemptionStatusUsed, expiry.Add(time.Hour), false},
		{"expired after expiry", RedemptionStatusExpired, expiry.Add(time.Hour), false},
		{"revoked after expiry", RedemptionStatusRevoked, expiry.Add(time.Hour), false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := &Redemption{Status: tc.status, ExpirationDate: expiry}
			if got := r.IsExpired(tc.now); got != tc.want {
				t.Errorf("IsExpired = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRedemptionIsTerminal(t *testing.T) {
	t.Parallel()

	for status, want := range map[RedemptionStatus]bool{
		RedemptionStatusActive:  false,
		RedemptionStatusUsed:    true,
		RedemptionStatusExpired: true,
		RedemptionStatusRevoked: true,
	} {
		r := &Redemption{Status: status}
		if got := r.IsTerminal(); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}
