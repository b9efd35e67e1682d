package main

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-silverlink/pkg/memo"
	"github.com/teslashibe/go-silverlink/pkg/transit"
)

func TestOpenMemosUsesTaipeiTime(t *testing.T) {
	var changed [][]memo.Memo
	store, err := openMemos(filepath.Join(t.TempDir(), "memos.json"), transit.Taipei(), slog.Default(),
		func(m []memo.Memo) { changed = append(changed, m) })
	if err != nil {
		t.Fatal(err)
	}

	m, err := store.Add("買菜", time.Date(2025, 1, 2, 7, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if m.DisplayTime != "1/2 15:00" {
		t.Errorf("DisplayTime = %q, want Taipei time", m.DisplayTime)
	}
	if len(changed) != 1 {
		t.Errorf("onChange calls = %d", len(changed))
	}
}
