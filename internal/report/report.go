// Package report renders progress as an xlsx workbook, one sheet per
// roadmap.
package report

import (
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-lms/internal/progress"
)

// Source provides roadmap snapshots.
type Source interface {
	Snapshot(roadmapID string) progress.Snapshot
}

// Projector provides projected completion dates. It may be nil.
type Projector interface {
	ProjectedRoadmapCompletion(roadmapID string) (civil.Date, bool)
	ProjectedTopicCompletion(roadmapID, phaseSlug, topicSlug string) (civil.Date, bool)
}

var header = []any{"Phase", "Topic", "Priority", "Completed", "Total", "Percent", "Projected completion"}

// Write renders a workbook for the given roadmaps to w. Unknown roadmap
// IDs are an error.
func Write(w io.Writer, src Source, proj Projector, roadmapIDs ...string) error {
	if len(roadmapIDs) == 0 {
		return fmt.Errorf("no roadmaps to report")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	for i, id := range roadmapIDs {
		snap := src.Snapshot(id)
		if snap.Roadmap == nil {
			return fmt.Errorf("unknown roadmap %q", id)
		}
		sheet := sheetName(id)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		if err := writeRoadmap(f, sheet, bold, snap, proj); err != nil {
			return fmt.Errorf("roadmap %s: %w", id, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRoadmap(f *excelize.File, sheet string, bold int, snap progress.Snapshot, proj Projector) error {
	rd := snap.Roadmap
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "G1", bold); err != nil {
		return err
	}

	row := 2
	for _, p := range rd.Phases {
		for _, t := range p.Topics {
			projected := ""
			if proj != nil {
				if d, ok := proj.ProjectedTopicCompletion(rd.ID, p.Slug, t.Slug); ok {
					projected = d.String()
				}
			}
			values := []any{
				p.Title,
				t.Name,
				string(t.Priority),
				snap.CompletedCountForTopic(p.Slug, t.Slug),
				len(t.Subtopics),
				snap.TopicCompletionPercentage(p.Slug, t.Slug),
				projected,
			}
			if err := setRow(f, sheet, row, values); err != nil {
				return err
			}
			row++
		}
	}

	projected := ""
	if proj != nil {
		if d, ok := proj.ProjectedRoadmapCompletion(rd.ID); ok {
			projected = d.String()
		}
	}
	summary := []any{
		rd.Title,
		fmt.Sprintf("%.1f hours", snap.TotalTimeSpentHours()),
		"",
		snap.CompletedCount(),
		snap.TotalLessonCount(),
		snap.CompletionPercentage(),
		projected,
	}
	if err := setRow(f, sheet, row, summary); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(header), row)
	if err := f.SetCellStyle(sheet, first, last, bold); err != nil {
		return err
	}

	if err := f.SetColWidth(sheet, "A", "B", 28); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "G", "G", 22)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// sheetName makes a roadmap ID usable as a worksheet name.
func sheetName(id string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, id)
	if runes := []rune(name); len(runes) > 31 {
		name = string(runes[:31])
	}
	return name
}
