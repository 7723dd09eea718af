package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"todoboard/internal/log"
	"todoboard/internal/schedule"
	"todoboard/internal/todo"
	"todoboard/internal/transfer"
	"todoboard/internal/weather"
)

type loadedMsg struct {
	err error
}

// mutatedMsg reports a finished store mutation. id is the item to keep
// selected, done the status line on success.
type mutatedMsg struct {
	op   string
	id   int64
	done string
	err  error
}

type importedMsg struct {
	res todo.ImportResult
	err error
}

type exportedMsg struct {
	path string
	err  error
}

type wakeMsg struct {
	wake schedule.Wake
}

type clockMsg time.Time

type weatherMsg struct {
	line string
	err  error
}

func bgctx() context.Context {
	return context.Background()
}

func (m Model) refreshCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return loadedMsg{err: store.Refresh(bgctx())}
	}
}

func (m Model) createCmd(title string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		created, err := store.Create(bgctx(), title)
		msg := mutatedMsg{op: "create", done: "Added task", err: err}
		if created != nil {
			msg.id = created.ID
		}
		return msg
	}
}

func (m Model) mutate(op string, id int64, done string, fn func(*todo.Store) error) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return mutatedMsg{op: op, id: id, done: done, err: fn(store)}
	}
}

func (m Model) exportCmd() tea.Cmd {
	items := m.store.ExportAll()
	dir := m.cfg.ExportDir
	now := m.clock.Now()
	return func() tea.Msg {
		data, err := transfer.ExportJSON(items)
		if errors.Is(err, transfer.ErrNothingToExport) {
			return exportedMsg{err: errors.New("no tasks to export")}
		}
		if err != nil {
			return exportedMsg{err: err}
		}
		path := filepath.Join(dir, transfer.ExportFileName(now))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return exportedMsg{err: err}
		}
		log.Info("exported tasks", "path", path, "count", len(items))
		return exportedMsg{path: path}
	}
}

func (m Model) importCmd(path string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return importedMsg{err: err}
		}
		drafts, err := transfer.ParseImport(data)
		if err != nil {
			log.Warn("import rejected", "path", path, "err", err)
			return importedMsg{err: err}
		}
		res, err := store.ImportBatch(bgctx(), drafts)
		return importedMsg{res: res, err: err}
	}
}

func waitForWake(ch <-chan schedule.Wake) tea.Cmd {
	return func() tea.Msg {
		return wakeMsg{wake: <-ch}
	}
}

func waitForWeather(ch <-chan weatherMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func clockTick() tea.Cmd {
	return tea.Every(time.Minute, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// offer hands v to a one-slot channel, replacing anything still unread.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// startWeather creates and starts the refresher on first use.
func (m Model) startWeather() tea.Cmd {
	if m.bg.refresher != nil || m.weather == nil {
		return nil
	}
	client := m.weather
	wc := m.cfg.Weather
	reports := m.bg.reports
	r, err := weather.NewRefresher(wc.Refresh,
		func(ctx context.Context) (weather.Report, error) {
			return client.Current(ctx, wc.Lat, wc.Lon, wc.Units)
		},
		func(rep weather.Report, err error) {
			msg := weatherMsg{err: err}
			if err == nil {
				msg.line, msg.err = rep.Line()
			}
			offer(reports, msg)
		})
	if err != nil {
		log.Error("weather refresher", err, "spec", wc.Refresh)
		return func() tea.Msg { return weatherMsg{err: err} }
	}
	m.bg.refresher = r
	r.Start()
	return nil
}
