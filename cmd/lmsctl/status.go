package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-lms/internal/catalog"
	"github.com/p-n-ai/pai-lms/internal/progress"
)

const barWidth = 20

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	phaseStyle = lipgloss.NewStyle().Bold(true)
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A")).
			Padding(0, 1)
)

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status [roadmap]",
		Short: "Show progress for all roadmaps, or one in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, rd := range c.core.Catalog.Roadmaps() {
					snap := c.core.Store.Snapshot(rd.ID)
					fmt.Fprintf(out, "%-12s %s %3d%%  %d/%d lessons\n",
						rd.ID, bar(snap.CompletionPercentage()), snap.CompletionPercentage(),
						snap.CompletedCount(), snap.TotalLessonCount())
				}
				return nil
			}

			rd, ok := c.core.Catalog.Roadmap(args[0])
			if !ok {
				return fmt.Errorf("unknown roadmap %q", args[0])
			}
			renderRoadmap(out, rd, c.core.Store.Snapshot(rd.ID), c)
			return nil
		},
	}
}

func renderRoadmap(out io.Writer, rd *catalog.Roadmap, snap progress.Snapshot, c *cli) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(rd.Title))
	fmt.Fprintf(&b, "%s %d%%  %d/%d lessons  %.1f hours\n",
		bar(snap.CompletionPercentage()), snap.CompletionPercentage(),
		snap.CompletedCount(), snap.TotalLessonCount(), snap.TotalTimeSpentHours())
	if pos, ok := snap.ResumeLearning(); ok {
		fmt.Fprintf(&b, "Resume: %s/%s/%s\n", pos.PhaseSlug, pos.TopicSlug, pos.SubtopicSlug)
	}
	if sched, ok := c.core.Store.Schedule(rd.ID); ok {
		line := fmt.Sprintf("Schedule: %d days/week from %s", sched.StudyDaysPerWeek, sched.StartDate)
		if d, ok := c.core.Scheduler.ProjectedRoadmapCompletion(rd.ID); ok {
			line += ", finish by " + d.String()
		}
		fmt.Fprintln(&b, line)
	}
	if snap.CanGenerateCertificate() {
		fmt.Fprintln(&b, doneStyle.Render("Certificate available"))
	}

	for _, p := range rd.Phases {
		fmt.Fprintf(&b, "\n%s %s\n", phaseStyle.Render(p.Title), mutedStyle.Render(fmt.Sprintf("%d%%", snap.PhaseCompletionPercentage(p.Slug))))
		for _, t := range p.Topics {
			mark := " "
			if snap.TopicComplete(p.Slug, t.Slug) {
				mark = doneStyle.Render("✓")
			}
			line := fmt.Sprintf("  %s %-28s %d/%d", mark, t.Name, snap.CompletedCountForTopic(p.Slug, t.Slug), len(t.Subtopics))
			if d, ok := c.core.Scheduler.ProjectedTopicCompletion(rd.ID, p.Slug, t.Slug); ok {
				line += mutedStyle.Render("  due " + d.String())
			}
			fmt.Fprintln(&b, line)
		}
	}
	fmt.Fprintln(out, boxStyle.Render(strings.TrimRight(b.String(), "\n")))
}

func bar(percent int) string {
	filled := percent * barWidth / 100
	return doneStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", barWidth-filled))
}
