package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/afterlog/internal/client/app"
)

type result int

const (
	resultNone result = iota
	resultShow
	resultQuit
)

// exec runs one command. Commands that need a session are refused on the
// sign-in screen.
func (a *App) exec(ctx context.Context, cmd, rest string) result {
	switch cmd {
	case "help":
		if a.signedIn() {
			printlnFn(helpSignedIn)
		} else {
			printlnFn(helpSignedOut)
		}
		return resultNone
	case "exit", "quit":
		return resultQuit
	case "show":
		return resultShow
	case "theme":
		a.ctrl.CycleTheme(ctx)
		return resultShow
	case "signup":
		_ = a.Signup(ctx, rest)
		return resultShow
	case "login":
		_ = a.Login(ctx, rest)
		return resultShow
	case "auth":
		return a.authTab(rest)
	}

	if !a.signedIn() {
		if isAppCommand(cmd) {
			printlnFn("Please log in first.")
			return resultNone
		}
		printlnFn("Unknown command:", cmd)
		return resultNone
	}

	switch cmd {
	case "logout":
		a.ctrl.SignOut(ctx)
	case "tab":
		switch rest {
		case "journal":
			a.ctrl.SetTab(app.TabJournal)
		case "todo":
			a.ctrl.SetTab(app.TabTodo)
		default:
			printlnFn("Usage: tab journal|todo")
			return resultNone
		}
	case "write":
		if rest == "" {
			printlnFn("Usage: write <text>")
			return resultNone
		}
		a.ctrl.Write(rest)
	case "save":
		a.ctrl.Save(ctx, rest)
	case "clear":
		a.ctrl.ClearDraft()
	case "mood":
		if rest == "" {
			printlnFn("Usage: mood <name>")
			return resultNone
		}
		a.ctrl.ToggleMood(rest)
	case "tags":
		a.ctrl.SetTags(rest)
	case "date":
		a.ctrl.SetDate(rest)
	case "recent":
		return a.pageCmd(ctx, "recent", rest, a.ctrl.RecentNext, a.ctrl.RecentPrev)
	case "history":
		return a.pageCmd(ctx, "history", rest, a.ctrl.HistoryNext, a.ctrl.HistoryPrev)
	case "todo":
		return a.todoCmd(ctx, rest)
	case "undo":
		a.ctrl.Undo()
	case "quick":
		switch rest {
		case "":
			a.ctrl.OpenQuick("")
		case "journal":
			a.ctrl.OpenQuick(app.TabJournal)
		case "todo":
			a.ctrl.OpenQuick(app.TabTodo)
		default:
			printlnFn("Usage: quick journal|todo")
			return resultNone
		}
	case "qsave":
		a.ctrl.QuickSave(ctx, rest)
	case "qadd":
		text, due := splitDue(rest)
		a.ctrl.QuickAdd(ctx, text, due)
	case "qclose":
		a.ctrl.CloseQuick()
	case "export":
		switch rest {
		case "":
			a.ctrl.Export(ctx)
		case "save":
			a.ctrl.Export(ctx)
			a.saveExport(ctx)
		default:
			printlnFn("Usage: export [save]")
			return resultNone
		}
	case "reload":
		a.ctrl.Reload(ctx)
	default:
		printlnFn("Unknown command:", cmd)
		return resultNone
	}
	return resultShow
}

var appCommands = map[string]bool{
	"logout": true, "tab": true, "write": true, "save": true, "clear": true,
	"mood": true, "tags": true, "date": true, "recent": true, "history": true,
	"todo": true, "undo": true, "quick": true, "qsave": true, "qadd": true,
	"qclose": true, "export": true, "reload": true,
}

func isAppCommand(cmd string) bool { return appCommands[cmd] }

func (a *App) authTab(rest string) result {
	switch rest {
	case "login":
		a.ctrl.SetAuthTab(app.AuthLogin)
	case "signup":
		a.ctrl.SetAuthTab(app.AuthSignup)
	default:
		printlnFn("Usage: auth login|signup")
		return resultNone
	}
	return resultShow
}

func (a *App) pageCmd(ctx context.Context, name, dir string, next, prev func(context.Context)) result {
	switch dir {
	case "next":
		next(ctx)
	case "prev":
		prev(ctx)
	default:
		printlnFn("Usage: " + name + " next|prev")
		return resultNone
	}
	return resultShow
}

func (a *App) todoCmd(ctx context.Context, rest string) result {
	sub, arg := splitCommand(rest)
	switch sub {
	case "add":
		text, due := splitDue(arg)
		a.ctrl.AddTodo(ctx, text, due)
	case "done", "rm":
		n, err := strconv.Atoi(arg)
		if err != nil {
			printlnFn("Usage: todo " + sub + " <n>")
			return resultNone
		}
		if sub == "done" {
			a.ctrl.ToggleTodo(ctx, n)
		} else {
			a.ctrl.DeleteTodo(ctx, n)
		}
	default:
		printlnFn("Usage: todo add <text> [@YYYY-MM-DD] | todo done <n> | todo rm <n>")
		return resultNone
	}
	return resultShow
}

// splitDue takes a trailing "@YYYY-MM-DD" off text.
func splitDue(text string) (string, string) {
	i := strings.LastIndex(text, " @")
	switch {
	case strings.HasPrefix(text, "@") && !strings.Contains(text, " "):
		return "", text[1:]
	case i < 0:
		return text, ""
	}
	due := text[i+2:]
	if strings.ContainsAny(due, " \t") {
		return text, ""
	}
	return strings.TrimSpace(text[:i]), due
}
