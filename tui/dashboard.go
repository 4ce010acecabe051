// Package tui provides a live terminal dashboard over a stream of completed
// decisions, the operator-facing counterpart to the teacher's tui.App. It is
// deliberately much smaller than the teacher's multi-panel trie browser: one
// table, one feed, no tabs.
package tui

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/ChristianF88/batchdecider/model"
)

// Decision is one row the dashboard displays: the outcome of a single
// decider.Decide call for one job vertex.
type Decision struct {
	VertexID    string
	Parallelism int
	Legalized   bool
	NumInputs   int
}

// Dashboard renders decisions added through Push into a scrolling tview
// table.
type Dashboard struct {
	app   *tview.Application
	table *tview.Table

	mu   sync.Mutex
	rows int
}

// NewDashboard builds an unstarted Dashboard.
func NewDashboard() *Dashboard {
	table := tview.NewTable().SetBorders(false).SetFixed(1, 0)
	table.SetCell(0, 0, headerCell("VERTEX"))
	table.SetCell(0, 1, headerCell("P"))
	table.SetCell(0, 2, headerCell("LEGALIZED"))
	table.SetCell(0, 3, headerCell("INPUTS"))

	app := tview.NewApplication().SetRoot(table, true)
	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	return &Dashboard{app: app, table: table}
}

func headerCell(text string) *tview.TableCell {
	return tview.NewTableCell(text).
		SetTextColor(tcell.ColorYellow).
		SetSelectable(false).
		SetAlign(tview.AlignLeft)
}

// Push appends one decision as a new row. Safe to call from any goroutine;
// it marshals the update onto the tview event loop.
func (d *Dashboard) Push(dec Decision) {
	d.app.QueueUpdateDraw(func() {
		d.mu.Lock()
		row := d.rows + 1
		d.rows++
		d.mu.Unlock()

		legalized := "yes"
		if !dec.Legalized {
			legalized = "no"
		}
		d.table.SetCell(row, 0, tview.NewTableCell(dec.VertexID))
		d.table.SetCell(row, 1, tview.NewTableCell(fmt.Sprintf("%d", dec.Parallelism)))
		d.table.SetCell(row, 2, tview.NewTableCell(legalized))
		d.table.SetCell(row, 3, tview.NewTableCell(fmt.Sprintf("%d", dec.NumInputs)))
	})
}

// Run starts the terminal UI event loop, blocking until the user quits.
func (d *Dashboard) Run() error {
	return d.app.Run()
}

// Stop ends the event loop from outside Run's goroutine.
func (d *Dashboard) Stop() {
	d.app.Stop()
}

// DecisionFromResult converts a decider output into a Decision row. Legalized
// reflects model.ParallelismAndInputInfos.EvenData: whether the even-data
// path produced this result, as opposed to a fallback or fixed parallelism.
func DecisionFromResult(vertexID string, infos model.ParallelismAndInputInfos) Decision {
	return Decision{
		VertexID:    vertexID,
		Parallelism: infos.Parallelism,
		Legalized:   infos.EvenData,
		NumInputs:   len(infos.Inputs),
	}
}
