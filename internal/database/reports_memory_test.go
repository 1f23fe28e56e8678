package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/benvon/vizflow/internal/models"
)

func TestMemoryReportArchive_NewestFirst(t *testing.T) {
	t.Parallel()

	archive := NewMemoryReportArchive(3)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rep := &models.WeeklyReport{ID: fmt.Sprintf("r%d", i), Content: "ok", GeneratedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := archive.Save(ctx, rep); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, err := archive.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"r4", "r3", "r2"}
	if len(got) != len(want) {
		t.Fatalf("List() returned %d reports, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("List()[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestMemoryReportArchive_DuplicateID(t *testing.T) {
	t.Parallel()

	archive := NewMemoryReportArchive(0)
	ctx := context.Background()
	_ = archive.Save(ctx, &models.WeeklyReport{ID: "same", Content: "first"})
	_ = archive.Save(ctx, &models.WeeklyReport{ID: "same", Content: "second"})

	got, _ := archive.List(ctx, 0)
	if len(got) != 1 || got[0].Content != "first" {
		t.Errorf("List() = %+v, want single report with first content", got)
	}
}

func TestClampLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want int
	}{
		{0, DefaultHistoryLimit},
		{-4, DefaultHistoryLimit},
		{5, 5},
		{MaxHistoryLimit + 1, MaxHistoryLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
