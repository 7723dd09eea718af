package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"todoboard/internal/log"
	"todoboard/internal/model"
	"todoboard/internal/transfer"
	"todoboard/internal/view"
)

func (a *app) newListCmd() *cobra.Command {
	var (
		date     string
		archived bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *model.Date
			if date != "" {
				d, err := model.ParseDate(date)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				filter = &d
			}
			if err := a.load(false); err != nil {
				return err
			}
			defer a.close()
			if err := a.refresh(cmd); err != nil {
				return err
			}

			proj := view.Project(a.store.Items(), view.Options{
				Filter:       filter,
				ShowArchived: archived,
				Location:     a.loc,
			})
			printList(cmd.OutOrStdout(), proj, filter, time.Now().In(a.loc))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "only tasks due on this day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived tasks")
	return cmd
}

func printList(w io.Writer, proj view.Projection, filter *model.Date, now time.Time) {
	if !proj.HasAny {
		fmt.Fprintln(w, "No tasks yet.")
		return
	}
	if len(proj.Active) == 0 {
		if filter != nil {
			fmt.Fprintf(w, "No tasks due on %s.\n", filter)
		} else {
			fmt.Fprintln(w, "Nothing active.")
		}
	}
	for _, it := range proj.Active {
		fmt.Fprintln(w, listLine(it, now))
	}
	if proj.ArchivedCount > 0 {
		fmt.Fprintf(w, "Archived (%d)\n", proj.ArchivedCount)
	}
	for _, it := range proj.Archived {
		fmt.Fprintln(w, listLine(it, now))
	}
}

func listLine(it model.Item, now time.Time) string {
	box := "[ ]"
	if it.Completed {
		box = "[x]"
	}
	line := fmt.Sprintf("%s #%d %s", box, it.ID, it.Text)
	if due, ok := it.DueAt(now.Location()); ok {
		line += fmt.Sprintf("  due %s (%s)", due.Format("Mon Jan 2 15:04"), humanize.RelTime(due, now, "ago", "from now"))
		if b := view.BadgeFor(it, now); b == view.BadgeToday || b == view.BadgeOverdue {
			line += " [" + b.String() + "]"
		}
	}
	return line
}

func (a *app) newExportCmd() *cobra.Command {
	var (
		out    string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all tasks to a backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "json" && format != "ics" {
				return fmt.Errorf("unknown format %q: use json or ics", format)
			}
			if err := a.load(false); err != nil {
				return err
			}
			defer a.close()
			if err := a.refresh(cmd); err != nil {
				return err
			}

			now := time.Now().In(a.loc)
			items := a.store.ExportAll()
			var (
				data []byte
				err  error
			)
			if format == "ics" {
				data, err = transfer.ExportICS(items, now)
			} else {
				data, err = transfer.ExportJSON(items)
			}
			if errors.Is(err, transfer.ErrNothingToExport) {
				return errors.New("no tasks to export")
			}
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if out == "" {
				name := transfer.ExportFileName(now)
				if format == "ics" {
					name = strings.TrimSuffix(name, ".json") + ".ics"
				}
				out = filepath.Join(a.cfg.ExportDir, name)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			log.Info("exported tasks", "path", out, "format", format, "count", len(items))
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", len(items), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout (default todo_backup_<date> in export_dir)")
	cmd.Flags().StringVar(&format, "format", "json", "json or ics")
	return cmd
}

func (a *app) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create tasks from a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			drafts, err := transfer.ParseImport(data)
			if err != nil {
				return err
			}
			if err := a.load(false); err != nil {
				return err
			}
			defer a.close()

			res, err := a.store.ImportBatch(cmd.Context(), drafts)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d tasks", res.Imported, res.Total)
			if res.Failed > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", %d failed", res.Failed)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			if res.AuthHalted {
				return errors.New("import stopped: not signed in, run `todo login`")
			}
			return err
		},
	}
}
