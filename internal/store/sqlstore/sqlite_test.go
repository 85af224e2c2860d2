package sqlstore

import (
	"path/filepath"
	"testing"

	"landwarden.gg/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "claims.db"))
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

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	storetest.Run(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	rows, err := s2.LoadIndexSnapshot()
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if len(rows) == 0 {
		t.Fatalf("claims should survive a reopen")
	}
}
