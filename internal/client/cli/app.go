package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/client/app"
	"github.com/dmitrijs2005/afterlog/internal/client/session"
	"github.com/dmitrijs2005/afterlog/internal/client/view"
)

// App owns the terminal side of the client. All state lives in the
// controller; App only reads commands and prints screens.
type App struct {
	ctrl     *app.Controller
	printer  *view.Printer
	reader   *bufio.Reader
	interval time.Duration
}

func NewApp(ctrl *app.Controller, in io.Reader, width int, presenceInterval time.Duration) *App {
	return &App{
		ctrl:     ctrl,
		printer:  view.NewPrinter(width),
		reader:   bufio.NewReader(in),
		interval: presenceInterval,
	}
}

// Run restores the previous session, starts the presence watcher and
// serves commands until exit or end of input.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.ctrl.Close(context.Background())

	printlnFn("Welcome to Afterlog (type 'help' for commands)")
	a.ctrl.Boot(ctx)

	if a.interval > 0 {
		go a.ctrl.StartPresenceWatcher(ctx, a.interval)
	}

	a.show()
	runREPL(ctx, a, a.getStatus)
}

func (a *App) signedIn() bool {
	return a.ctrl.Snapshot().Route == session.RouteApp
}

// show prints the current screen.
func (a *App) show() {
	printlnFn(a.printer.Format(view.Render(a.ctrl.Snapshot())))
}

func (a *App) getStatus() string {
	st := a.ctrl.Snapshot()
	s := st.Sync
	if st.Email != "" {
		s = st.Email + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}
