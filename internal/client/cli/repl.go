package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

const (
	helpSignedOut = "Available commands: signup, login, auth login|signup, theme, show, exit"
	helpSignedIn  = `Available commands:
  tab journal|todo              switch the main tab
  write <text>                  type into the draft (autosaves after a pause)
  save [text]                   save the draft now
  clear                         empty the draft
  mood <calm|good|tired|stressed|low>
  tags <a,b,c>                  set tags for the draft
  date [YYYY-MM-DD]             set the entry date (empty for today)
  recent next|prev              page the recent list
  history next|prev             page the history
  todo add <text> [@YYYY-MM-DD] add a task
  todo done <n>                 toggle task n
  todo rm <n>                   delete task n (undo within a few seconds)
  undo                          restore the last deleted task
  quick journal|todo            open quick capture
  qsave <text> | qadd <text> [@YYYY-MM-DD] | qclose
  export [save]                 export everything; save downloads the archive
  theme | reload | show | logout | exit`
)

// runREPL starts a simple read–eval–print loop for the Afterlog CLI.
//
// It reads a line, parses the first token as the command, and dispatches to
// methods on a. Unknown commands are reported back to the user. The loop
// exits on end of input, when the user types "exit" or "quit", or when ctx
// is cancelled. Cancellation is noticed between commands, so a line read
// after it is dropped.
//
// After every command that can change the state the screen is printed
// again, so the terminal always shows what the controller holds.
func runREPL(ctx context.Context, a *App, statusFn func() string) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("afterlog %s> ", statusFn()))
		line, err := a.reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		if ctx.Err() != nil {
			return
		}
		cmd, rest := splitCommand(line)
		if cmd == "" {
			continue
		}

		switch a.exec(ctx, cmd, rest) {
		case resultQuit:
			printlnFn("Bye!")
			return
		case resultShow:
			a.show()
		}
	}
}

// splitCommand returns the first word of line and the rest of it with its
// inner spacing kept, so typed text reaches the draft as written.
func splitCommand(line string) (cmd, rest string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}
