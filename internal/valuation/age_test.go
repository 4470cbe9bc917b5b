package valuation

import (
	"testing"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
)

func TestAgeFactor_Curve(t *testing.T) {
	cases := []struct {
		age  int
		want float64
	}{
		{21, 0.90},
		{22, 0.90},
		{23, 0.95},
		{24, 0.95},
		{25, 1.05},
		{27, 1.05},
		{28, 1.00},
		{29, 1.00},
		{30, 0.90},
		{31, 0.90},
		{32, 0.80},
		{38, 0.80},
	}

	for _, tc := range cases {
		if got := AgeFactor(tc.age, identity.PositionWR); got != tc.want {
			t.Fatalf("AgeFactor(%d, WR) = %v, want %v", tc.age, got, tc.want)
		}
	}
}

func TestAgeFactor_RBCliff(t *testing.T) {
	// The 29+ RB penalty stacks on the base curve.
	if got := AgeFactor(29, identity.PositionRB); got != 1.00*0.85 {
		t.Fatalf("AgeFactor(29, RB) = %v, want %v", got, 1.00*0.85)
	}
	if got := AgeFactor(31, identity.PositionRB); got != 0.90*0.85 {
		t.Fatalf("AgeFactor(31, RB) = %v, want %v", got, 0.90*0.85)
	}
	if got := AgeFactor(28, identity.PositionRB); got != 1.00 {
		t.Fatalf("AgeFactor(28, RB) = %v, want no cliff before 29", got)
	}
}

func TestAgeFactor_UnknownAge(t *testing.T) {
	if got := AgeFactor(0, identity.PositionRB); got != 1.0 {
		t.Fatalf("unknown age should be neutral, got %v", got)
	}
}

func TestInjuryFactor(t *testing.T) {
	cases := []struct {
		status InjuryStatus
		want   float64
	}{
		{InjuryHealthy, 1.0},
		{InjuryProbable, 1.0},
		{InjuryQuestionable, 0.85},
		{InjuryDoubtful, 0.70},
		{InjuryOut, 0.50},
		{InjuryIR, 0.30},
		{InjuryPUP, 0.20},
		{InjuryStatus("Suspended"), 1.0},
		{InjuryStatus(""), 1.0},
	}

	for _, tc := range cases {
		if got := InjuryFactor(tc.status); got != tc.want {
			t.Fatalf("InjuryFactor(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestProductionFactor(t *testing.T) {
	cases := []struct {
		percentile float64
		want       float64
	}{
		{50, 1.0},
		{100, 1.05},
		{0, 0.95},
		{75, 1.025},
		{120, 1.05},
		{-10, 0.95},
	}

	for _, tc := range cases {
		got := ProductionFactor(tc.percentile)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("ProductionFactor(%v) = %v, want %v", tc.percentile, got, tc.want)
		}
	}
}

func TestWeightedFactor(t *testing.T) {
	cases := []struct {
		factor, weight, want float64
	}{
		{0.80, 1.0, 0.80},
		{0.80, 0, 1.0},
		{0.80, 0.5, 0.90},
		{1.10, 2.0, 1.20},
	}

	for _, tc := range cases {
		got := WeightedFactor(tc.factor, tc.weight)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("WeightedFactor(%v, %v) = %v, want %v", tc.factor, tc.weight, got, tc.want)
		}
	}
}

func TestPickValue(t *testing.T) {
	cases := []struct {
		desc string
		want int
	}{
		{"2026 1st Early", 3500},
		{"2026 4th", 250},
		{"2027 2nd Mid", 1250},
		{"2028 1st", 2200},
		{"  2026 1st Early  ", 3500},
		// Segment given but only a round-level price exists.
		{"2028 1st Early", 2200},
		{"2030 1st Early", 0},
		{"garbage", 0},
		{"", 0},
	}

	for _, tc := range cases {
		if got := PickValue(tc.desc); got != tc.want {
			t.Fatalf("PickValue(%q) = %d, want %d", tc.desc, got, tc.want)
		}
	}
}
