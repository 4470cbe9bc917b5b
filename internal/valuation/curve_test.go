package valuation

import (
	"testing"

	"github.com/gridironlab/valuation-engine/internal/domain/profile"
)

func TestRankToValue_Ceiling(t *testing.T) {
	for _, decay := range []float64{DynastyDecay, RedraftDecay} {
		if got := RankToValue(1, decay); got != 10000 {
			t.Fatalf("RankToValue(1, %v) = %d, want 10000", decay, got)
		}
		if got := RankToValue(0, decay); got != 10000 {
			t.Fatalf("rank below 1 should return the ceiling, got %d", got)
		}
		if got := RankToValue(-5, decay); got != 10000 {
			t.Fatalf("negative rank should return the ceiling, got %d", got)
		}
	}
}

func TestRankToValue_StrictlyDecreasing(t *testing.T) {
	prev := RankToValue(1, DynastyDecay)
	for rank := 2; rank <= 500; rank++ {
		got := RankToValue(rank, DynastyDecay)
		if got >= prev {
			t.Fatalf("RankToValue(%d) = %d, not below RankToValue(%d) = %d", rank, got, rank-1, prev)
		}
		prev = got
	}
}

func TestRankToValue_RedraftDecaysFaster(t *testing.T) {
	for _, rank := range []int{10, 50, 100, 200} {
		dynasty := RankToValue(rank, DynastyDecay)
		redraft := RankToValue(rank, RedraftDecay)
		if redraft >= dynasty {
			t.Fatalf("rank %d: redraft value %d should be below dynasty value %d", rank, redraft, dynasty)
		}
	}
}

func TestValueToRank_RoundTrip(t *testing.T) {
	for rank := 1; rank <= 1000; rank++ {
		v := RankToValue(rank, DynastyDecay)
		if v <= 0 {
			break
		}
		back := ValueToRank(v, DynastyDecay)
		diff := back - rank
		if diff < 0 {
			diff = -diff
		}
		if diff > 1 {
			t.Fatalf("round trip rank %d -> value %d -> rank %d drifted by %d", rank, v, back, diff)
		}
	}
}

func TestValueToRank_Sentinels(t *testing.T) {
	if got := ValueToRank(10000, DynastyDecay); got != 1 {
		t.Fatalf("value at ceiling should map to rank 1, got %d", got)
	}
	if got := ValueToRank(12000, DynastyDecay); got != 1 {
		t.Fatalf("value above ceiling should map to rank 1, got %d", got)
	}
	if got := ValueToRank(0, DynastyDecay); got != UnrankedSentinel {
		t.Fatalf("zero value should map to the sentinel, got %d", got)
	}
	if got := ValueToRank(-50, DynastyDecay); got != UnrankedSentinel {
		t.Fatalf("negative value should map to the sentinel, got %d", got)
	}
}

func TestDecayFor(t *testing.T) {
	if got := DecayFor(profile.FormatDynasty); got != DynastyDecay {
		t.Fatalf("dynasty decay = %v, want %v", got, DynastyDecay)
	}
	if got := DecayFor(profile.FormatRedraft); got != RedraftDecay {
		t.Fatalf("redraft decay = %v, want %v", got, RedraftDecay)
	}
}
