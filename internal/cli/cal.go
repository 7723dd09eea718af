package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"todoboard/internal/calendar"
	"todoboard/internal/clock"
	"todoboard/internal/log"
	"todoboard/internal/todo"
	"todoboard/internal/weather"
)

func (a *app) newCalCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "cal",
		Short: "Print a month with due days marked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var target time.Time
			if month != "" {
				t, err := time.Parse("2006-01", month)
				if err != nil {
					return errors.New("--month: use YYYY-MM")
				}
				target = t
			}
			if err := a.load(false); err != nil {
				return err
			}
			defer a.close()

			marks := calendar.DaySet{}
			switch err := a.store.Refresh(cmd.Context()); {
			case err == nil:
				marks = calendar.DueDays(a.store.Items(), a.loc)
			case errors.Is(err, todo.ErrAuthRequired):
				log.Warn("not signed in, due days not marked")
			default:
				return err
			}

			cal := calendar.New(clock.Real{Location: a.loc}, a.cfg.FirstWeekday())
			cal.Open()
			if !target.IsZero() {
				cal.HeaderClick()
				cal.HeaderClick()
				cal.SelectYear(target.Year())
				cal.SelectMonth(target.Month())
			}
			printMonth(cmd.OutOrStdout(), cal, marks)
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to show (YYYY-MM), default the current one")
	return cmd
}

// printMonth writes the day grid. Due days carry a trailing '*' and
// today is bracketed.
func printMonth(w io.Writer, cal *calendar.Machine, marks calendar.DaySet) {
	fmt.Fprintln(w, cal.Header())
	var b strings.Builder
	for _, l := range cal.WeekdayLabels() {
		fmt.Fprintf(&b, "%4s", l)
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	for _, row := range cal.Grid(marks.Has).Rows() {
		b.Reset()
		for _, c := range row {
			switch {
			case c.Blank:
				b.WriteString("    ")
			case c.Today:
				fmt.Fprintf(&b, "%4s", "["+c.Label+"]")
			case c.Marked:
				fmt.Fprintf(&b, "%4s", c.Label+"*")
			default:
				fmt.Fprintf(&b, "%4s", c.Label)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func (a *app) newWeatherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weather",
		Short: "Print the current weather for the configured location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(false); err != nil {
				return err
			}
			defer a.close()

			wc := a.cfg.Weather
			rep, err := weather.NewClient(a.cfg.ServerURL, a.gate).Current(cmd.Context(), wc.Lat, wc.Lon, wc.Units)
			if err != nil {
				return err
			}
			line, err := rep.Line()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
}
