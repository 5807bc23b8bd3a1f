package debugger

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unworried/flip/vm"
)

// tui bundles the widgets so refresh can redraw them together.
type tui struct {
	dbg *Debugger
	app *tview.Application

	registers   *tview.TextView
	disassembly *tview.TextView
	memory      *tview.TextView
	status      *tview.TextView
}

// RunTUI starts the interactive debugger and blocks until quit.
func RunTUI(dbg *Debugger) error {
	t := &tui{dbg: dbg, app: tview.NewApplication()}

	t.registers = newPane("Registers")
	t.disassembly = newPane("Disassembly")
	t.memory = newPane("Stack")
	t.status = tview.NewTextView()
	t.status.SetText(" s: step   c: continue   b: toggle breakpoint at PC   q: quit")

	side := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.registers, 0, 1, false).
		AddItem(t.memory, 0, 2, false)

	body := tview.NewFlex().
		AddItem(t.disassembly, 0, 2, true).
		AddItem(side, 0, 1, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(t.status, 1, 0, false)

	t.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q':
			t.app.Stop()
			return nil
		case 's':
			_ = t.dbg.Step()
			t.refresh()
			return nil
		case 'c':
			_ = t.dbg.Continue()
			t.refresh()
			return nil
		case 'b':
			pc := t.dbg.Machine.GetRegister(vm.PC)
			t.dbg.Breakpoints().Toggle(pc)
			t.refresh()
			return nil
		}
		return event
	})

	t.refresh()
	return t.app.SetRoot(root, true).Run()
}

func newPane(title string) *tview.TextView {
	tv := tview.NewTextView()
	tv.SetBorder(true)
	tv.SetTitle(" " + title + " ")
	return tv
}

func (t *tui) refresh() {
	t.registers.SetText(t.dbg.RegisterDump())
	t.disassembly.SetText(t.dbg.Disassembly())
	t.memory.SetText(t.dbg.MemoryDump(16))
	t.status.SetText(fmt.Sprintf(
		" s: step   c: continue   b: breakpoint   q: quit   [%s, %d breakpoints]",
		t.dbg.State, t.dbg.Breakpoints().Count(),
	))
}
