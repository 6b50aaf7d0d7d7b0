package domain

import (
	"strings"
	"time"
	"unicode"
)

const minCandidateIDLength = 2

// Candidate is a scored subject within one tenant. Deactivated candidates
// keep their accumulated statistics so history queries stay valid.
type Candidate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	Quote     string    `json:"quote,omitempty"`
	Glyph     string    `json:"glyph,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`

	TotalPoints    int            `json:"total_points"`
	MonthlyPoints  map[string]int `json:"monthly_points"`
	AnnualPoints   map[string]int `json:"annual_points"`
	BestWeekPoints int            `json:"best_week_points"`
	BestWeekKey    string         `json:"best_week_key,omitempty"`
}

// NewCandidate creates an active candidate with initialized accumulators.
func NewCandidate(id, name, createdBy string, now time.Time) *Candidate {
	return &Candidate{
		ID:            id,
		Name:          name,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		Active:        true,
		MonthlyPoints: make(map[string]int),
		AnnualPoints:  make(map[string]int),
	}
}

// Clone returns a deep copy.
func (c *Candidate) Clone() *Candidate {
	cp := *c
	cp.MonthlyPoints = copyIntMap(c.MonthlyPoints)
	cp.AnnualPoints = copyIntMap(c.AnnualPoints)
	return &cp
}

// CandidateID derives the stable identifier from a display name: lowercase,
// runs of non-alphanumeric characters collapse to single dashes. Returns
// ErrInvalidCandidateID when the name normalizes to fewer than two characters.
func CandidateID(name string) (string, error) {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	id := strings.TrimSuffix(b.String(), "-")
	if len([]rune(id)) < minCandidateIDLength {
		return "", ErrInvalidCandidateID
	}
	return id, nil
}

func copyIntMap(m map[string]int) map[string]int {
	cp := make(map[string]int, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
