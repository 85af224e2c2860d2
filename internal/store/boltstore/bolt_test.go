package boltstore

import (
	"path/filepath"
	"testing"

	"landwarden.gg/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "claims.bolt"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	storetest.Run(t, s)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
