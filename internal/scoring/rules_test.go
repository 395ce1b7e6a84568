package scoring

import (
	"testing"

	"github.com/mikey/fraud-detector/internal/core"
)

func TestTallyCapsAtMaxScore(t *testing.T) {
	t.Parallel()

	fs := core.NewFeatureSet("a", "b", "c")
	fs.Set("a", 10)
	fs.Set("b", 10)
	fs.Set("c", 10)

	rules := []Rule{
		{Feature: "a", Op: Above, Cutoff: 5, Points: 50, Issue: "a is %.0f"},
		{Feature: "b", Op: Above, Cutoff: 5, Points: 50, Issue: "b high"},
		{Feature: "c", Op: Above, Cutoff: 5, Points: 50, Issue: "c high"},
	}

	tally := NewTally()
	tally.Apply(fs, rules)

	if tally.Raw() != 150 {
		t.Fatalf("expected raw 150, got %d", tally.Raw())
	}
	if tally.Score() != MaxScore {
		t.Fatalf("expected score %d, got %d", MaxScore, tally.Score())
	}
	issues := tally.Issues()
	if len(issues) != 3 || issues[0] != "a is 10" {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestRuleOps(t *testing.T) {
	t.Parallel()

	fs := core.NewFeatureSet("x")
	fs.Set("x", 3)

	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{"above true", Rule{Feature: "x", Op: Above, Cutoff: 2}, true},
		{"above boundary", Rule{Feature: "x", Op: Above, Cutoff: 3}, false},
		{"below true", Rule{Feature: "x", Op: Below, Cutoff: 4}, true},
		{"below boundary", Rule{Feature: "x", Op: Below, Cutoff: 3}, false},
		{"equal", Rule{Feature: "x", Op: Equal, Cutoff: 3}, true},
		{"unknown feature reads zero", Rule{Feature: "y", Op: Equal, Cutoff: 0}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.rule.Fires(fs); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCap(t *testing.T) {
	t.Parallel()

	if Cap(-5) != 0 || Cap(42) != 42 || Cap(250) != 100 {
		t.Fatalf("cap boundaries wrong: %d %d %d", Cap(-5), Cap(42), Cap(250))
	}
}
