package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/conorfennell/wordpractice/internal/domain"
	"github.com/conorfennell/wordpractice/internal/sync"
	"github.com/conorfennell/wordpractice/internal/vocab"
)

const clearScreen = "\033[H\033[2J"

// Options configures the interactive app.
type Options struct {
	PageSize    int
	ClearScreen bool
	Syncer      *sync.Syncer // nil hides the sync action
}

// App is the interactive text menu.
type App struct {
	in    *bufio.Scanner
	out   io.Writer
	words *vocab.Service
	opts  Options
}

// New creates an app reading commands from in and printing to out.
func New(in io.Reader, out io.Writer, words *vocab.Service, opts Options) *App {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	return &App{
		in:    bufio.NewScanner(in),
		out:   out,
		words: words,
		opts:  opts,
	}
}

// Run shows the main menu until the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	err := a.mainMenu(ctx)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (a *App) mainMenu(ctx context.Context) error {
	actions := "Actions: 'e' -> exit, 'a' -> add new word, 'p' -> practise words, 'l' -> list and edit words"
	if a.opts.Syncer != nil {
		actions += ", 's' -> sync sources"
	}

	a.clear()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.println("Main panel. What do you want to do?")
		input, err := a.prompt(actions + ": ")
		if err != nil {
			return err
		}

		switch {
		case input == "e":
			a.println("Exiting program. Bye!")
			return nil
		case input == "a":
			err = a.addWord(ctx)
		case input == "p":
			err = a.practise(ctx)
		case input == "l":
			err = a.listWords(ctx)
		case input == "s" && a.opts.Syncer != nil:
			err = a.syncSources(ctx)
		default:
			a.println("Unknown command. Try again one more time.")
			continue
		}
		if err != nil {
			return err
		}
		a.clear()
	}
}

func (a *App) syncSources(ctx context.Context) error {
	a.clear()
	a.println("Sync panel.")
	report, err := a.opts.Syncer.RunSync(ctx)
	if err != nil {
		slog.Error("Sync failed", "error", err)
		a.printf("Sync failed: %v\n", err)
	} else {
		a.printf("Added %d, updated %d, skipped %d, unlinked %d, errors %d.\n",
			report.Added, report.Updated, report.Skipped, report.Unlinked, report.Errors)
	}
	return a.pause()
}

// prompt prints label and reads one trimmed line.
func (a *App) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(a.in.Text()), nil
}

// promptRequired repeats the prompt until a non-empty line is entered.
// A non-empty fallback is returned for an empty line instead.
func (a *App) promptRequired(label, fallback, complaint string) (string, error) {
	for {
		input, err := a.prompt(label)
		if err != nil {
			return "", err
		}
		if input == "" {
			input = fallback
		}
		if input != "" {
			return input, nil
		}
		a.println(complaint)
	}
}

func (a *App) pause() error {
	_, err := a.prompt("Press 'Enter' to continue...")
	return err
}

func (a *App) clear() {
	if a.opts.ClearScreen {
		fmt.Fprint(a.out, clearScreen)
	}
}

func (a *App) println(s string) { fmt.Fprintln(a.out, s) }

func (a *App) printf(format string, args ...any) { fmt.Fprintf(a.out, format, args...) }

// recoverable reports whether err should lead to a re-prompt rather than
// aborting the current action.
func recoverable(err error) bool {
	return errors.Is(err, domain.ErrDuplicateWord) ||
		errors.Is(err, domain.ErrInvalidTag) ||
		errors.Is(err, domain.ErrInvalidWord) ||
		errors.Is(err, domain.ErrWordNotFound)
}

func formatTags(tags []domain.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
