package main

import (
	"fmt"
	"os"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-lms/internal/progress"
	"github.com/p-n-ai/pai-lms/internal/quiz"
	"github.com/p-n-ai/pai-lms/internal/report"
)

func lessonArgs(args []string) progress.LessonRef {
	return progress.LessonRef{RoadmapID: args[0], PhaseSlug: args[1], TopicSlug: args[2], SubtopicSlug: args[3]}
}

func newCompleteCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <roadmap> <phase> <topic> <subtopic>",
		Short: "Mark a lesson complete",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := lessonArgs(args)
			minutes, _ := cmd.Flags().GetInt("minutes")
			if !cmd.Flags().Changed("minutes") {
				if rd, ok := c.core.Catalog.Roadmap(ref.RoadmapID); ok {
					if st, ok := rd.Subtopic(ref.PhaseSlug, ref.TopicSlug, ref.SubtopicSlug); ok {
						minutes = st.EstimatedMinutes
					}
				}
			}

			changed, err := c.core.Store.MarkComplete(cmd.Context(), ref, minutes)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s was already complete\n", ref)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "completed %s (%d%% of %s)\n",
				ref, c.core.Store.Snapshot(ref.RoadmapID).CompletionPercentage(), ref.RoadmapID)
			return persisted(c)
		},
	}
	cmd.Flags().Int("minutes", 0, "minutes spent (default: the lesson's estimate)")
	return cmd
}

func newQuizCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "quiz <roadmap> <phase> <topic> <subtopic> <score>",
		Short: "Record a quiz score (the best score is kept)",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := lessonArgs(args)
			score, err := strconv.Atoi(args[4])
			if err != nil {
				return fmt.Errorf("score must be a number: %w", err)
			}

			newBest, err := c.core.Store.RecordQuizScore(cmd.Context(), ref, score)
			if err != nil {
				return err
			}
			passing := quiz.DefaultPassingScore
			if q, ok := c.core.Quizzes.Get(ref.RoadmapID, ref.PhaseSlug, ref.TopicSlug, ref.SubtopicSlug); ok {
				passing = q.PassingScore
			}
			passed := score >= passing

			out := cmd.OutOrStdout()
			if newBest {
				fmt.Fprintf(out, "recorded %d for %s\n", score, ref)
			} else {
				best, _ := c.core.Store.Snapshot(ref.RoadmapID).QuizScore(ref.PhaseSlug, ref.TopicSlug, ref.SubtopicSlug)
				fmt.Fprintf(out, "kept best score %d for %s\n", best, ref)
			}

			if passed && c.cfg.Quiz.CompleteOnPass {
				rd, _ := c.core.Catalog.Roadmap(ref.RoadmapID)
				st, _ := rd.Subtopic(ref.PhaseSlug, ref.TopicSlug, ref.SubtopicSlug)
				if changed, err := c.core.Store.MarkComplete(cmd.Context(), ref, st.EstimatedMinutes); err != nil {
					return err
				} else if changed {
					fmt.Fprintf(out, "passed; %s marked complete\n", ref)
				}
			}
			return persisted(c)
		},
	}
}

func newScheduleCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage a roadmap's study schedule",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <roadmap> <yyyy-mm-dd> <days-per-week>",
			Short: "Set the study schedule",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				start, err := civil.ParseDate(args[1])
				if err != nil {
					return fmt.Errorf("start date: %w", err)
				}
				days, err := strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("days per week must be a number: %w", err)
				}
				sched := progress.StudySchedule{StartDate: start, StudyDaysPerWeek: days}
				if err := c.core.Store.SetSchedule(cmd.Context(), args[0], sched); err != nil {
					return err
				}
				msg := fmt.Sprintf("schedule set: %d days/week from %s", days, start)
				if d, ok := c.core.Scheduler.ProjectedRoadmapCompletion(args[0]); ok {
					msg += ", finish by " + d.String()
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return persisted(c)
			},
		},
		&cobra.Command{
			Use:   "clear <roadmap>",
			Short: "Remove the study schedule",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.core.Store.ClearSchedule(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schedule cleared")
				return persisted(c)
			},
		},
	)
	return cmd
}

func newResetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <roadmap>",
		Short: "Erase all progress for a roadmap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := c.core.Catalog.Roadmap(args[0]); !ok {
				return fmt.Errorf("unknown roadmap %q", args[0])
			}
			if err := c.core.Store.ResetProgress(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "progress for %s reset\n", args[0])
			return persisted(c)
		},
	}
}

func newExportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the progress document as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.core.Store.Export()
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				_, err := cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().String("out", "", "file to write (default stdout)")
	return cmd
}

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all progress with a previously exported document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := c.core.Store.Import(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", args[0])
			return persisted(c)
		},
	}
}

func newReportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [roadmap...]",
		Short: "Write an xlsx progress report (all roadmaps by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			ids := args
			if len(ids) == 0 {
				ids = c.core.Catalog.IDs()
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := report.Write(f, c.core.Store, c.core.Scheduler, ids...); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().String("out", "progress.xlsx", "xlsx file to write")
	return cmd
}

// persisted surfaces a failed write-through, which the store itself only
// logs.
func persisted(c *cli) error {
	if err := c.core.Store.PersistError(); err != nil {
		return fmt.Errorf("change applied but not saved: %w", err)
	}
	return nil
}
