package adjustment

import (
	"testing"
	"time"
)

func TestClampTotal(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 0},
		{1500, 1500},
		{1501, 1500},
		{4000, 1500},
		{-1500, -1500},
		{-1501, -1500},
		{-9999, -1500},
		{300, 300},
	}
	for _, tc := range cases {
		if got := ClampTotal(tc.in); got != tc.want {
			t.Fatalf("ClampTotal(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestTrendOf(t *testing.T) {
	cases := []struct {
		total int
		want  Trend
	}{
		{51, TrendUp},
		{1500, TrendUp},
		{50, TrendNeutral},
		{0, TrendNeutral},
		{-50, TrendNeutral},
		{-51, TrendDown},
	}
	for _, tc := range cases {
		if got := TrendOf(tc.total); got != tc.want {
			t.Fatalf("TrendOf(%d) = %s, want %s", tc.total, got, tc.want)
		}
	}
}

func TestActive(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	a := ValueAdjustment{ExpiresAt: now.Add(time.Hour)}
	if !a.Active(now) {
		t.Fatal("adjustment expiring in the future must be active")
	}
	a.ExpiresAt = now.Add(-time.Minute)
	if a.Active(now) {
		t.Fatal("expired adjustment must be inactive")
	}
	a.ExpiresAt = now
	if a.Active(now) {
		t.Fatal("adjustment expiring exactly now must be inactive")
	}
}

func TestValueAdjustment_Validate(t *testing.T) {
	valid := ValueAdjustment{
		PlayerID:   "p1",
		FormatKey:  "dynasty_12team_sf",
		Delta:      -300,
		Reason:     "hamstring injury",
		Source:     "injury_detector",
		Confidence: 4,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid adjustment rejected: %v", err)
	}

	bad := valid
	bad.Delta = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("zero delta should be rejected")
	}

	bad = valid
	bad.Confidence = 6
	if err := bad.Validate(); err == nil {
		t.Fatal("confidence above 5 should be rejected")
	}

	bad = valid
	bad.Confidence = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("confidence below 1 should be rejected")
	}

	bad = valid
	bad.Reason = ""
	if err := bad.Validate(); err == nil {
		t.Fatal("missing reason should be rejected")
	}
}
