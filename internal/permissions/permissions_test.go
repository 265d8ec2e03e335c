package permissions

import "testing"

func TestCanCreateResume(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tier  Tier
		count int
		want  bool
	}{
		{Free, 0, true},
		{Free, 1, false},
		{Pro, 2, true},
		{Pro, 3, false},
		{ProPlus, 0, true},
		{ProPlus, 1000, true},
		{Tier("unknown"), 0, true},
		{Tier("unknown"), 1, false},
	}
	for _, tt := range tests {
		if got := CanCreateResume(tt.tier, tt.count); got != tt.want {
			t.Fatalf("CanCreateResume(%s, %d) = %v, want %v", tt.tier, tt.count, got, tt.want)
		}
	}
}

func TestFeatureGates(t *testing.T) {
	t.Parallel()

	if CanUseAITools(Free) || !CanUseAITools(Pro) || !CanUseAITools(ProPlus) {
		t.Fatalf("unexpected AI tools gate")
	}
	if CanUseCustomizations(Free) || CanUseCustomizations(Pro) || !CanUseCustomizations(ProPlus) {
		t.Fatalf("unexpected customization gate")
	}
}

func TestParseTier(t *testing.T) {
	t.Parallel()

	got, err := ParseTier(" PRO_PLUS ")
	if err != nil || got != ProPlus {
		t.Fatalf("ParseTier = %q, %v", got, err)
	}
	if _, err := ParseTier("gold"); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
}
