package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"simdash/internal/dashboard"
	"simdash/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

func fmtTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func renderView(w io.Writer, v dashboard.View) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "user:\t%s\n", orDash(v.User))
	if v.SignedOut {
		fmt.Fprintf(tw, "session:\tsigned out, sign in again\n")
	}
	fmt.Fprintf(tw, "simulation:\t%s\n", strings.ToUpper(v.Status.Status))
	fmt.Fprintf(tw, "started:\t%s by %s\n", fmtTime(v.Status.StartTime), orDash(v.Status.StartedBy))
	if !v.Status.Running() {
		fmt.Fprintf(tw, "stopped:\t%s by %s\n", fmtTime(v.Status.StopTime), orDash(v.Status.StoppedBy))
	}
	s := v.Stats
	if v.Checkups == 0 {
		fmt.Fprintf(tw, "temperature:\tno readings\n")
	} else {
		fmt.Fprintf(tw, "temperature:\t%d°C (avg %d, min %d, max %d)\n", s.Current, s.Average, s.Min, s.Max)
		fmt.Fprintf(tw, "readings:\t%d (%d critical, %d normal), last %s\n", v.Checkups, s.CriticalCount, s.NormalCount, fmtTime(s.LastUpdated))
	}
	fmt.Fprintf(tw, "realtime:\t%s\n", v.Connection)
	if v.RealtimeError != "" {
		fmt.Fprintf(tw, "\trealtime unavailable, polling: %s\n", v.RealtimeError)
	}
	if v.Loading {
		fmt.Fprintf(tw, "\tworking...\n")
	}
	if v.Banner != "" {
		fmt.Fprintf(tw, "error:\t%s\n", v.Banner)
	}
	if v.RefreshError != "" {
		fmt.Fprintf(tw, "refresh:\t%s\n", v.RefreshError)
	}
	return tw.Flush()
}

func renderTodos(w io.Writer, todos []models.Todo) error {
	if len(todos) == 0 {
		_, err := fmt.Fprintln(w, "no todos")
		return err
	}
	sum := dashboard.SummarizeTodos(todos)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tDONE\tTASK\n")
	for _, t := range todos {
		done := " "
		if t.IsComplete {
			done = "x"
		}
		fmt.Fprintf(tw, "%s\t[%s]\t%s\n", t.ID, done, t.Task)
	}
	fmt.Fprintf(tw, "\n%d pending, %d completed\n", len(sum.Pending), len(sum.Completed))
	return tw.Flush()
}
