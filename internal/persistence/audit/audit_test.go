package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestWriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir)

	entries := []Entry{
		{Kind: KindClaim, Player: "p1", World: "orbis", ChunkX: 1, ChunkZ: 2},
		{Kind: KindDeny, Player: "p2", World: "orbis", ChunkX: 1, ChunkZ: 2, Level: "build", Code: "E_NO_PERMISSION"},
	}
	for _, e := range entries {
		if err := l.Write(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "claims-*.jsonl.zst"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected one audit file, got %v (err %v)", files, err)
	}

	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	var got []Entry
	sc := bufio.NewScanner(dec.IOReadCloser())
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal %q: %v", sc.Text(), err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(got) != len(entries) {
		t.Fatalf("read %d entries, want %d", len(got), len(entries))
	}
	if got[0].Kind != KindClaim || got[1].Kind != KindDeny {
		t.Fatalf("unexpected kinds: %+v", got)
	}
	if got[0].TimeMs == 0 {
		t.Fatalf("missing timestamp on first entry")
	}
	if got[1].Code != "E_NO_PERMISSION" {
		t.Fatalf("code = %q", got[1].Code)
	}
}
