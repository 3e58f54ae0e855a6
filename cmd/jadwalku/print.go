package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"jadwalku/internal/kalender"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold).SprintFunc()
	dateColor   = color.New(color.FgYellow).SprintFunc()
	dimColor    = color.New(color.Faint).SprintFunc()
)

func newUpcomingCmd(flags *rootFlags) *cobra.Command {
	var start, limit int

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Print the next academic calendar events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(flags)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = env.cfg.UpcomingLimit
			}
			now := time.Now().In(env.loc)
			events, stats := kalender.Upcoming(env.calendar, now, env.loc)
			printUpcoming(cmd.OutOrStdout(), kalender.Paginate(events, start, limit), start, stats)
			return nil
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "Index of the first event to print")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of events to print (default from config)")
	return cmd
}

func newDashboardCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print this week's, this month's and upcoming academic events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(flags)
			if err != nil {
				return err
			}
			now := time.Now().In(env.loc)
			d := kalender.BuildDashboard(env.calendar, now, env.loc, kalender.ParseWeekStart(env.cfg.WeekStart))
			printDashboard(cmd.OutOrStdout(), d)
			return nil
		},
	}
}

func printUpcoming(w io.Writer, page kalender.Page, start int, stats kalender.Stats) {
	fmt.Fprintln(w, headerColor("🎓 Kalender Akademik Terdekat"))
	if len(page.Events) == 0 {
		fmt.Fprintln(w, "Tidak ada agenda mendatang.")
	}
	for i, ev := range page.Events {
		fmt.Fprintf(w, "%2d. %s  %s\n", start+i+1, dateColor(kalender.FormatForDisplay(ev.Date)), ev.Name)
	}
	if page.HasMore {
		fmt.Fprintln(w, dimColor(fmt.Sprintf("... %d dari %d, gunakan --start %d untuk berikutnya", start+len(page.Events), page.Total, start+len(page.Events))))
	}
	if stats.Dropped > 0 {
		fmt.Fprintln(w, dimColor(fmt.Sprintf("(%d tanggal tidak dapat dibaca)", stats.Dropped)))
	}
}

func printDashboard(w io.Writer, d kalender.Dashboard) {
	sections := []struct {
		title  string
		events []kalender.DashboardEvent
	}{
		{"📅 Minggu Ini", d.ThisWeek},
		{"🗓️ Bulan Ini", d.ThisMonth},
		{"⏭️ Tiga Bulan ke Depan", d.Future},
	}
	for i, sec := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, headerColor(sec.title))
		if len(sec.events) == 0 {
			fmt.Fprintln(w, dimColor("  (kosong)"))
			continue
		}
		for _, ev := range sec.events {
			fmt.Fprintf(w, "  - %s: %s\n", ev.Name, dateColor(kalender.FormatForDisplay(ev.Date)))
		}
	}
}
