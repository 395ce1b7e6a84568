package core

import (
	"encoding/json"
	"testing"
)

func TestFeatureSetShapeIsFixed(t *testing.T) {
	t.Parallel()

	fs := NewFeatureSet("b", "a", "b")
	if fs.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", fs.Len())
	}
	if fs.Set("unknown", 1) {
		t.Fatalf("expected Set on unknown key to be rejected")
	}
	fs.SetBool("a", true)

	keys := fs.Keys()
	if keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("expected insertion order [b a], got %v", keys)
	}
	if got := fs.Values(); got[0] != 0 || got[1] != 1 {
		t.Fatalf("unexpected values %v", got)
	}
}

func TestFeatureSetMarshalKeepsOrder(t *testing.T) {
	t.Parallel()

	fs := NewFeatureSet("z", "a")
	fs.Set("z", 1.5)

	data, err := json.Marshal(fs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"z":1.5,"a":0}` {
		t.Fatalf("unexpected json %s", data)
	}
}

func TestFeatureSetCloneIsIndependent(t *testing.T) {
	t.Parallel()

	fs := NewFeatureSet("a")
	c := fs.Clone()
	c.Set("a", 9)
	if fs.Get("a") != 0 {
		t.Fatalf("clone mutated the original")
	}
}

func TestRiskLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  string
	}{
		{100, LevelVeryHigh},
		{80, LevelVeryHigh},
		{79, LevelHigh},
		{60, LevelHigh},
		{59, LevelMedium},
		{40, LevelMedium},
		{39, LevelLow},
		{20, LevelLow},
		{19, LevelSafe},
		{0, LevelSafe},
	}
	for _, tt := range tests {
		if got := RiskLevel(tt.score); got != tt.want {
			t.Errorf("score %d: expected %q, got %q", tt.score, tt.want, got)
		}
	}
}
