package namematch

// Confidence buckets a match score for downstream triage.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// MatchScore is the result of comparing two player names.
type MatchScore struct {
	Score      float64
	Confidence Confidence
	Reason     string
}

// Scorer compares names with a pluggable nickname table.
type Scorer struct {
	nicknames NicknameTable
}

func NewScorer(nicknames NicknameTable) *Scorer {
	return &Scorer{nicknames: nicknames}
}

// ScoreMatch walks a priority ladder: exact normalized match, last
// name + first initial, last name + nickname hit, then bucketed raw
// similarity. The first rung that fires wins.
func (s *Scorer) ScoreMatch(a, b string) MatchScore {
	na := Normalize(a)
	nb := Normalize(b)

	if na == "" || nb == "" {
		return MatchScore{Score: 0, Confidence: ConfidenceNone, Reason: "empty name"}
	}
	if na == nb {
		return MatchScore{Score: 1.0, Confidence: ConfidenceHigh, Reason: "exact normalized match"}
	}

	lastA, lastB := LastName(na), LastName(nb)
	firstA, firstB := FirstName(na), FirstName(nb)

	if lastA == lastB && firstA != "" && firstB != "" {
		if firstA[0] == firstB[0] {
			return MatchScore{Score: 0.95, Confidence: ConfidenceHigh, Reason: "same last name and first initial"}
		}
		if s.nicknames.Match(firstA, firstB) {
			return MatchScore{Score: 0.93, Confidence: ConfidenceHigh, Reason: "same last name and known nickname"}
		}
	}

	score := Similarity(na, nb)
	switch {
	case score >= 0.92:
		return MatchScore{Score: score, Confidence: ConfidenceHigh, Reason: "high string similarity"}
	case score >= 0.85:
		return MatchScore{Score: score, Confidence: ConfidenceMedium, Reason: "medium string similarity"}
	case score >= 0.75:
		return MatchScore{Score: score, Confidence: ConfidenceLow, Reason: "low string similarity"}
	default:
		return MatchScore{Score: score, Confidence: ConfidenceNone, Reason: "no meaningful similarity"}
	}
}
