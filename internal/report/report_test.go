package report_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-lms/internal/catalog"
	"github.com/p-n-ai/pai-lms/internal/platform/clock"
	"github.com/p-n-ai/pai-lms/internal/progress"
	"github.com/p-n-ai/pai-lms/internal/report"
	"github.com/p-n-ai/pai-lms/internal/schedule"
)

func setup(t *testing.T) (*progress.Store, *schedule.Scheduler) {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	c := clock.NewFixed(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	store, err := progress.Open(context.Background(), progress.Config{Catalog: cat, Clock: c})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return store, schedule.New(store, c)
}

func TestWrite(t *testing.T) {
	store, sched := setup(t)
	ctx := context.Background()
	ref := progress.LessonRef{RoadmapID: "devops", PhaseSlug: "foundations", TopicSlug: "git", SubtopicSlug: "commits-and-branches"}
	if _, err := store.MarkComplete(ctx, ref, 30); err != nil {
		t.Fatalf("MarkComplete() error = %v", err)
	}
	if err := store.SetSchedule(ctx, "devops", progress.StudySchedule{StartDate: civil.Date{Year: 2026, Month: 1, Day: 5}, StudyDaysPerWeek: 7}); err != nil {
		t.Fatalf("SetSchedule() error = %v", err)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, store, sched, "devops", "fullstack"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != "devops" || got[1] != "fullstack" {
		t.Fatalf("sheets = %v, want [devops fullstack]", got)
	}

	rows, err := f.GetRows("devops")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	// Header, nine topics, summary.
	if len(rows) != 11 {
		t.Fatalf("rows = %d, want 11", len(rows))
	}
	if rows[0][0] != "Phase" || rows[0][6] != "Projected completion" {
		t.Errorf("header = %v", rows[0])
	}

	git := rows[3]
	if git[1] != "Git" || git[3] != "1" || git[4] != "2" || git[5] != "50" {
		t.Errorf("git row = %v", git)
	}
	if git[6] != "2026-01-07" {
		t.Errorf("git projection = %q, want 2026-01-07", git[6])
	}

	summary := rows[10]
	if summary[0] != "DevOps Engineer" || summary[1] != "0.5 hours" || summary[3] != "1" || summary[4] != "23" || summary[5] != "4" {
		t.Errorf("summary = %v", summary)
	}
	if summary[6] != "2026-01-13" {
		t.Errorf("roadmap projection = %q, want 2026-01-13", summary[6])
	}
}

func TestWrite_WithoutProjector(t *testing.T) {
	store, _ := setup(t)
	var buf bytes.Buffer
	if err := report.Write(&buf, store, nil, "fullstack"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("Write() produced an empty workbook")
	}
}

func TestWrite_Errors(t *testing.T) {
	store, sched := setup(t)
	var buf bytes.Buffer
	if err := report.Write(&buf, store, sched); err == nil {
		t.Error("Write() with no roadmaps should fail")
	}
	if err := report.Write(&buf, store, sched, "nope"); err == nil {
		t.Error("Write() with an unknown roadmap should fail")
	}
}
