// Package audit appends claim lifecycle and denial events to hourly-rotated
// zstd-compressed JSONL files.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Event kinds.
const (
	KindClaim      = "claim"
	KindUnclaim    = "unclaim"
	KindUnclaimAll = "unclaim_all"
	KindTrust      = "trust"
	KindUntrust    = "untrust"
	KindDeny       = "deny"
	KindPvPBlock   = "pvp_block"
)

// Entry is one audit row.
type Entry struct {
	TimeMs int64  `json:"time_ms"`
	Kind   string `json:"kind"`
	Player string `json:"player,omitempty"`
	Target string `json:"target,omitempty"`
	World  string `json:"world,omitempty"`
	ChunkX int    `json:"chunk_x,omitempty"`
	ChunkZ int    `json:"chunk_z,omitempty"`
	Level  string `json:"level,omitempty"`
	Code   string `json:"code,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// Logger writes entries to <dir>/claims-<hour>.jsonl.zst, rotating hourly.
type Logger struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewLogger(baseDir string) *Logger {
	return &Logger{baseDir: baseDir, prefix: "claims"}
}

func (l *Logger) Write(e Entry) error {
	if e.TimeMs == 0 {
		e.TimeMs = time.Now().UnixMilli()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != l.curHour {
		if err := l.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	return l.w.Flush()
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked()
}

func (l *Logger) rotateLocked(hour string) error {
	if err := l.closeLocked(); err != nil {
		return err
	}
	path := filepath.Join(l.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", l.prefix, hour))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	l.f = f
	l.enc = enc
	l.w = bufio.NewWriterSize(enc, 64*1024)
	l.curHour = hour
	return nil
}

func (l *Logger) closeLocked() error {
	var err1 error
	if l.w != nil {
		_ = l.w.Flush()
	}
	if l.enc != nil {
		err1 = l.enc.Close()
		l.enc = nil
	}
	if l.f != nil {
		_ = l.f.Close()
		l.f = nil
	}
	l.w = nil
	return err1
}
