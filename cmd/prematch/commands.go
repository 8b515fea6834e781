package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/prematch/internal/calendar"
	"github.com/username/prematch/internal/daemon"
	"github.com/username/prematch/internal/export"
	"github.com/username/prematch/internal/notify"
	"github.com/username/prematch/internal/schedule"
	"github.com/username/prematch/internal/status"
	"github.com/username/prematch/pkg/dateutil"
)

func importCalendarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-calendar <file>",
		Short: "Import a calendar definition (JSON or YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read definition: %w", err)
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			cal, err := a.provider.StoreCalendar(cmd.Context(), data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printf(out, "✅ Imported %s (version %g)\n", cal.Name(), cal.Version())
			printf(out, "   %s .. %s, %d-day cycle, blocks %s\n",
				dateutil.FormatDate(cal.Interval().Start),
				dateutil.FormatDate(cal.Interval().End),
				cal.CycleSize(),
				strings.Join(cal.Blocks(), ""))
			if res, err := a.provider.Current(); err == nil && res.Schedule == nil {
				printf(out, "   No schedule stored, run import-schedule to add teachers\n")
			}
			return nil
		},
	}
}

func importScheduleCmd() *cobra.Command {
	var clearSchedule bool

	cmd := &cobra.Command{
		Use:   "import-schedule [file]",
		Short: "Import the block to teacher mapping",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clearSchedule && len(args) == 0 {
				return errors.New("a schedule file is required unless --clear is set")
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if clearSchedule {
				if err := a.provider.ClearSchedule(cmd.Context()); err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "✅ Schedule cleared\n")
				return nil
			}

			res, err := a.resources()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read schedule: %w", err)
			}
			sched, err := schedule.FromJSON(data, res.Calendar)
			if err != nil {
				return err
			}
			if _, err := a.provider.StoreSchedule(cmd.Context(), sched.Mapping()); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "✅ Imported %d teacher assignments for %s\n",
				len(sched.Mapping()), res.Calendar.Name())
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearSchedule, "clear", false, "Remove the stored schedule instead")
	return cmd
}

func dayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "day [date]",
		Short: "Show the blocks, teachers and periods of a date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.resources()
			if err != nil {
				return err
			}
			date, err := dateArg(args, res.Calendar.Location())
			if err != nil {
				return err
			}
			day, err := res.Calendar.Day(date)
			if err != nil {
				return err
			}
			printDay(cmd, day, res.Schedule)
			return nil
		},
	}
}

func nextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next [date]",
		Short: "Show the first school day after a date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.resources()
			if err != nil {
				return err
			}
			date, err := dateArg(args, res.Calendar.Location())
			if err != nil {
				return err
			}
			day, ok := res.Calendar.NextSchoolDay(date)
			if !ok {
				printf(cmd.OutOrStdout(), "No more school days this year\n")
				return nil
			}
			printDay(cmd, day, res.Schedule)
			return nil
		},
	}
}

func teacherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teacher <block> [date]",
		Short: "Show who teaches a block on a date",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.resources()
			if err != nil {
				return err
			}
			if res.Schedule == nil {
				return errors.New("no schedule stored, run import-schedule first")
			}
			date, err := dateArg(args[1:], res.Calendar.Location())
			if err != nil {
				return err
			}
			teacher, err := res.Schedule.CurrentTeacher(args[0], date)
			if err != nil {
				return err
			}
			if teacher == "" {
				teacher = "Free block"
			}
			printf(cmd.OutOrStdout(), "Block %s on %s: %s\n", args[0], dateutil.FormatDate(date), teacher)
			return nil
		},
	}
}

func nowCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "now",
		Short: "Show what is happening at school right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.resources()
			if err != nil {
				return err
			}
			loc := res.Calendar.Location()
			now := time.Now().In(loc)
			if at != "" {
				if now, err = dateutil.ParseDateTime(at, loc); err != nil {
					return err
				}
			}

			st, err := status.Resolve(now, res.Calendar, res.Schedule)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printf(out, "%s\n", st.Title)
			if st.Info != "" {
				printf(out, "%s\n", st.Info)
			}
			logger.Debug("Status resolved",
				zap.String("kind", st.Kind.String()),
				zap.Bool("is_today", st.IsToday))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Resolve at this time instead of now (YYYY-MM-DDTHH:MM:SS)")
	return cmd
}

func briefingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "briefing [date]",
		Short: "Preview the morning briefing of a school day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.resources()
			if err != nil {
				return err
			}
			date, err := dateArg(args, res.Calendar.Location())
			if err != nil {
				return err
			}

			briefing := notify.NewDayBriefing(res.Calendar, res.Schedule, cfg.Notify.BriefingTime)
			req, err := briefing.Request(string(notify.BriefingID) + dateutil.FormatDate(date))
			if errors.Is(err, notify.ErrUnsupportedDay) {
				printf(cmd.OutOrStdout(), "No briefing on %s\n", dateutil.FormatDate(date))
				return nil
			}
			if err != nil {
				return err
			}
			printRequest(cmd, req)
			return nil
		},
	}
}

func pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List scheduled notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			reqs, err := a.store.PendingRequests(cmd.Context())
			if err != nil {
				return err
			}
			if len(reqs) == 0 {
				printf(cmd.OutOrStdout(), "No pending notifications\n")
				return nil
			}
			for _, req := range reqs {
				printRequest(cmd, req)
			}
			return nil
		},
	}
}

func renewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "renew",
		Short: "Prune expired notifications and schedule upcoming briefings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := newDaemon(a)
			if err != nil {
				return err
			}
			result, err := d.RenewNow(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printf(out, "✅ Renewed: %d already pending, %d added", result.AlreadyPending, len(result.Added))
			if result.Failed > 0 {
				printf(out, ", %d failed", result.Failed)
			}
			printf(out, "\n")
			for _, id := range result.Added {
				printf(out, "   + %s\n", id)
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var (
		outPath        string
		from, to       string
		periods        bool
		schoolDaysOnly bool
	)

	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Export the school year as an iCalendar feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.resources()
			if err != nil {
				return err
			}
			loc := res.Calendar.Location()
			r := res.Calendar.Interval()
			if from != "" {
				if r.Start, err = dateutil.ParseDate(from, loc); err != nil {
					return err
				}
			}
			if to != "" {
				if r.End, err = dateutil.ParseDate(to, loc); err != nil {
					return err
				}
			}

			opts := export.Options{
				Range:          r,
				SchoolDaysOnly: schoolDaysOnly,
				Periods:        periods,
				Stamp:          time.Now(),
			}

			if outPath == "" || outPath == "-" {
				return export.Write(cmd.OutOrStdout(), res.Calendar, res.Schedule, opts)
			}

			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			if err := export.Write(f, res.Calendar, res.Schedule, opts); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			logger.Info("Calendar exported",
				zap.String("file", outPath),
				zap.String("from", dateutil.FormatDate(r.Start)),
				zap.String("to", dateutil.FormatDate(r.End)))
			printf(cmd.OutOrStdout(), "✅ Exported %s to %s\n", res.Calendar.Name(), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&from, "from", "", "First date to export (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last date to export (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&periods, "periods", false, "Add one event per period")
	cmd.Flags().BoolVar(&schoolDaysOnly, "school-days-only", false, "Skip holidays and unknown days")
	return cmd
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Keep briefings scheduled in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := newDaemon(a)
			if err != nil {
				return err
			}
			return d.Run(cmd.Context())
		},
	}
}

func newDaemon(a *app) (*daemon.Daemon, error) {
	loc, err := cfg.Calendar.GetLocation()
	if err != nil {
		return nil, err
	}
	return daemon.New(a.provider, a.store, daemon.Settings{
		BriefingTime: cfg.Notify.BriefingTime,
		Limit:        cfg.Notify.GetLimit(),
		RenewCron:    cfg.Notify.GetRenewCron(),
		Location:     loc,
	}, logger), nil
}

// dateArg parses the first argument as a date, defaulting to today.
func dateArg(args []string, loc *time.Location) (time.Time, error) {
	if len(args) == 0 || args[0] == "" {
		return dateutil.Today(loc), nil
	}
	return dateutil.ParseDate(args[0], loc)
}

func printDay(cmd *cobra.Command, day calendar.Day, sched *schedule.Schedule) {
	out := cmd.OutOrStdout()
	printf(out, "📅 %s: %s (%s)\n", day.Date.Format("Monday, Jan 2, 2006"), day.Description, day.Type)
	if !day.IsSchoolDay() {
		return
	}

	for i, block := range day.Blocks {
		line := "  Block " + block
		if i < len(day.Periods) {
			line = fmt.Sprintf("  %-13s Block %s", day.Periods[i].String(), block)
		}
		if sched != nil {
			teacher, err := sched.CurrentTeacher(block, day.Date)
			switch {
			case err != nil:
				teacher = "(unknown)"
			case teacher == "":
				teacher = "Free block"
			}
			line += "  " + teacher
		}
		printf(out, "%s\n", line)
	}
}

func printRequest(cmd *cobra.Command, req notify.Request) {
	printf(cmd.OutOrStdout(), "🔔 %s  %s\n   %s\n   %s\n",
		req.Trigger.Format("2006-01-02 15:04"), req.Identifier, req.Title, req.Body)
}
