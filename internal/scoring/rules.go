// Package scoring turns feature sets into bounded risk scores through
// independent weighted threshold rules.
package scoring

import (
	"fmt"
	"strings"

	"github.com/mikey/fraud-detector/internal/core"
)

// MaxScore is the clamp ceiling for every risk score
const MaxScore = 100

// Op is the comparison a rule applies to its feature
type Op int

const (
	// Above fires when the feature is strictly greater than the cutoff
	Above Op = iota
	// Below fires when the feature is strictly less than the cutoff
	Below
	// Equal fires when the feature equals the cutoff
	Equal
)

// Rule adds Points when Feature compared with Cutoff holds.
// Issue is a format string that may reference the feature value once.
type Rule struct {
	Feature string
	Op      Op
	Cutoff  float64
	Points  int
	Issue   string
}

// Fires reports whether the rule triggers for the feature set
func (r Rule) Fires(fs core.FeatureSet) bool {
	v := fs.Get(r.Feature)
	switch r.Op {
	case Above:
		return v > r.Cutoff
	case Below:
		return v < r.Cutoff
	case Equal:
		return v == r.Cutoff
	default:
		return false
	}
}

// Message renders the issue text for the feature set
func (r Rule) Message(fs core.FeatureSet) string {
	if !strings.Contains(r.Issue, "%") {
		return r.Issue
	}
	return fmt.Sprintf(r.Issue, fs.Get(r.Feature))
}

// Tally accumulates rule points and issues in evaluation order
type Tally struct {
	raw    int
	issues []string
}

// NewTally creates an empty tally
func NewTally() *Tally {
	return &Tally{issues: make([]string, 0)}
}

// Add records a contribution that is not tied to a feature rule
func (t *Tally) Add(points int, issue string) {
	t.raw += points
	if issue != "" {
		t.issues = append(t.issues, issue)
	}
}

// Apply evaluates every rule independently against the feature set
func (t *Tally) Apply(fs core.FeatureSet, rules []Rule) {
	for _, r := range rules {
		if r.Fires(fs) {
			t.Add(r.Points, r.Message(fs))
		}
	}
}

// Raw returns the uncapped sum
func (t *Tally) Raw() int {
	return t.raw
}

// Score returns the sum clamped to [0, MaxScore]
func (t *Tally) Score() int {
	return Cap(t.raw)
}

// Issues returns a copy of the recorded issues
func (t *Tally) Issues() []string {
	out := make([]string, len(t.issues))
	copy(out, t.issues)
	return out
}

// Cap clamps a score to [0, MaxScore]
func Cap(score int) int {
	if score > MaxScore {
		return MaxScore
	}
	if score < 0 {
		return 0
	}
	return score
}
