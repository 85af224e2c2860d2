package claim

import "testing"

func TestTrustLevelSatisfies(t *testing.T) {
	levels := []TrustLevel{TrustNone, TrustUse, TrustContainer, TrustWorkstation, TrustDamage, TrustBuild}
	for _, lv := range levels {
		if !TrustBuild.Satisfies(lv) {
			t.Fatalf("build should satisfy %v", lv)
		}
		if lv != TrustNone && TrustNone.Satisfies(lv) {
			t.Fatalf("none should not satisfy %v", lv)
		}
	}
	if TrustContainer.Satisfies(TrustWorkstation) {
		t.Fatalf("container should not satisfy workstation")
	}
	if !TrustContainer.Satisfies(TrustUse) {
		t.Fatalf("container should satisfy use")
	}
}

func TestParseTrustLevel(t *testing.T) {
	cases := map[string]TrustLevel{
		"use":           TrustUse,
		"Container":     TrustContainer,
		" WORKSTATION ": TrustWorkstation,
		"damage":        TrustDamage,
		"build":         TrustBuild,
		"none":          TrustNone,
	}
	for in, want := range cases {
		got, err := ParseTrustLevel(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %v want %v", in, got, want)
		}
	}

	if _, err := ParseTrustLevel("owner"); err != ErrInvalidTrustLevel {
		t.Fatalf("expected ErrInvalidTrustLevel, got %v", err)
	}
	if _, err := ParseTrustLevel(""); err != ErrInvalidTrustLevel {
		t.Fatalf("expected ErrInvalidTrustLevel for empty input, got %v", err)
	}
}

func TestTrustLevelKeysRoundTrip(t *testing.T) {
	for lv := TrustNone; lv <= TrustBuild; lv++ {
		got, err := ParseTrustLevel(lv.Key())
		if err != nil || got != lv {
			t.Fatalf("round trip %v: got %v err %v", lv, got, err)
		}
	}
}
