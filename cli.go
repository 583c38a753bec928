package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"focus-server/archive"
	"focus-server/tracking"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show today's focus score and top sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		analytics, err := tracking.NewAggregator(s, logger, time.Now).Analytics()
		if err != nil {
			return err
		}

		pterm.DefaultSection.Println("Focus " + analytics.Day)
		summary := pterm.TableData{
			{"Metric", "Value"},
			{"Productivity score", fmt.Sprintf("%d (%s)", analytics.Score, analytics.Rating)},
			{"Focus minutes", fmt.Sprintf("%d", analytics.FocusMinutes)},
			{"Distractions blocked", fmt.Sprintf("%d", analytics.Blocks)},
			{"Streak (days)", fmt.Sprintf("%d", analytics.Streak)},
			{"Weekly average (min)", fmt.Sprintf("%d", analytics.WeeklyAverage)},
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(summary).Render(); err != nil {
			return err
		}

		if len(analytics.TopSites) == 0 {
			pterm.Info.Println("No sites tracked today")
			return nil
		}

		sites := pterm.TableData{{"Domain", "Visits", "Minutes"}}
		for _, site := range analytics.TopSites {
			sites = append(sites, []string{site.Domain, fmt.Sprintf("%d", site.Visits), fmt.Sprintf("%d", site.Minutes)})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(sites).Render()
	},
}

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "List pending reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		reminders, err := s.ListReminders()
		if err != nil {
			return err
		}
		if len(reminders) == 0 {
			pterm.Info.Println("No pending reminders")
			return nil
		}

		now := time.Now()
		rows := pterm.TableData{{"ID", "Title", "Fires at", "In"}}
		for _, r := range reminders {
			in := "due"
			if d := r.FireAt.Sub(now); d > 0 {
				in = d.Round(time.Minute).String()
			}
			rows = append(rows, []string{r.ID, r.Title, r.FireAt.Local().Format("2006-01-02 15:04"), in})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive [day]",
	Short: "List archived tracking days, or show one day's sites",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfg.Archive.Dir); errors.Is(err, os.ErrNotExist) {
			pterm.Info.Println("No archive at " + cfg.Archive.Dir)
			return nil
		}
		a, err := archive.Open(cfg.Archive.Dir)
		if err != nil {
			return err
		}

		day := ""
		if len(args) == 1 {
			day = args[0]
		}
		rows, err := archiveTable(a, day)
		if err != nil {
			return err
		}
		if len(rows) == 1 {
			pterm.Info.Println("Archive is empty")
			return nil
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

// archiveTable lists the archived days, or the sites of one day ordered by time spent.
func archiveTable(a *archive.Archive, day string) (pterm.TableData, error) {
	if day == "" {
		days, err := a.Days()
		if err != nil {
			return nil, err
		}
		rows := pterm.TableData{{"Day", "Sites", "Minutes"}}
		for _, d := range days {
			sites, err := a.Day(d)
			if err != nil {
				return nil, err
			}
			rows = append(rows, []string{d, fmt.Sprintf("%d", len(sites)), fmt.Sprintf("%d", tracking.FocusMinutes(sites))})
		}
		return rows, nil
	}

	sites, err := a.Day(day)
	if err != nil {
		return nil, err
	}
	rows := pterm.TableData{{"Domain", "Visits", "Minutes"}}
	for _, site := range tracking.TopSites(sites, 0) {
		rows = append(rows, []string{site.Domain, fmt.Sprintf("%d", site.Visits), fmt.Sprintf("%d", site.Minutes)})
	}
	return rows, nil
}
