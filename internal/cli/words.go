package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/conorfennell/wordpractice/internal/domain"
)

const tagHelp = "'w' -> word, 'p' -> phrasalVerb, 'c' -> collocation"

// wordForm asks for every editable field. When editing, an empty answer
// keeps the current value and "-" clears the example or the tags.
func (a *App) wordForm(current domain.WordInput, editing bool) (domain.WordInput, error) {
	hint := func(v string) string {
		if editing && v != "" {
			return " [" + v + "]"
		}
		return ""
	}

	var in domain.WordInput
	var err error

	in.Word, err = a.promptRequired("Enter word"+hint(current.Word)+": ", current.Word,
		"Word should have at least one letter")
	if err != nil {
		return in, err
	}

	in.Translation, err = a.promptRequired("Enter word translation"+hint(current.Translation)+": ", current.Translation,
		"Word translation should have at least one letter")
	if err != nil {
		return in, err
	}

	example, err := a.prompt("Enter example use (optional)" + hint(current.Example) + ": ")
	if err != nil {
		return in, err
	}
	switch {
	case example == "-":
		in.Example = ""
	case example == "" && editing:
		in.Example = current.Example
	default:
		in.Example = example
	}

	in.Tags, err = a.promptTags(current.Tags, editing)
	return in, err
}

func (a *App) promptTags(current []domain.Tag, editing bool) ([]domain.Tag, error) {
	label := "Enter tags, comma separated: " + tagHelp
	if editing && len(current) > 0 {
		label += " " + formatTags(current)
	}
	for {
		input, err := a.prompt(label + ": ")
		if err != nil {
			return nil, err
		}
		switch {
		case input == "-":
			return nil, nil
		case input == "" && editing:
			return current, nil
		}
		tags, err := domain.ParseTags(input)
		if err == nil {
			return tags, nil
		}
		a.println("Tags accept the values: " + tagHelp)
	}
}

func (a *App) printWord(title string, in domain.WordInput) {
	a.println(title)
	a.println("word: " + in.Word)
	a.println("word translation: " + in.Translation)
	a.println("example use: " + in.Example)
	a.println("tags: " + formatTags(in.Tags))
}

// confirm asks whether the entered data is correct. It returns 'y', 'n'
// or 'e'.
func (a *App) confirm() (string, error) {
	for {
		input, err := a.prompt("Actions: 'y' -> data correct, 'n' -> data incorrect, 'e' -> exit to previous menu: ")
		if err != nil {
			return "", err
		}
		switch input {
		case "y", "n", "e":
			return input, nil
		}
		a.println("Unknown command. Try again one more time.")
	}
}

func (a *App) addWord(ctx context.Context) error {
	for {
		a.clear()
		a.println("Add new word panel. Follow instructions:")
		in, err := a.wordForm(domain.WordInput{}, false)
		if err != nil {
			return err
		}

		a.clear()
		a.printWord("Add new word panel. Is all data correct?", in)
		choice, err := a.confirm()
		if err != nil {
			return err
		}

		switch choice {
		case "e":
			a.println("Exiting from adding word panel.")
			return nil
		case "n":
			a.println("Incorrect word data... Try once again.")
			continue
		}

		if _, err := a.words.AddWord(ctx, in); err != nil {
			if !recoverable(err) {
				return err
			}
			a.printf("Could not add word: %v. Try once again.\n", err)
			if err := a.pause(); err != nil {
				return err
			}
			continue
		}
		a.println("Word has been added.")
		return a.pause()
	}
}

// editWord runs the edit form for w. It returns the stored word and whether
// anything was saved.
func (a *App) editWord(ctx context.Context, w domain.Word) (domain.Word, bool, error) {
	for {
		a.clear()
		a.printf("Edit word panel. Word id %d. Press 'Enter' to keep a value, '-' to clear it.\n", w.ID)
		in, err := a.wordForm(w.Input(), true)
		if err != nil {
			return w, false, err
		}

		a.clear()
		a.printWord("Edit word panel. Is all data correct?", in)
		choice, err := a.confirm()
		if err != nil {
			return w, false, err
		}

		switch choice {
		case "e":
			a.println("Exiting from editing word panel.")
			return w, false, nil
		case "n":
			a.println("Incorrect word data... Try once again.")
			continue
		}

		updated, err := a.words.EditWord(ctx, w.ID, in)
		if err != nil {
			if !recoverable(err) {
				return w, false, err
			}
			if errors.Is(err, domain.ErrWordNotFound) {
				a.printf("Could not edit word: %v.\n", err)
				return w, false, a.pause()
			}
			a.printf("Could not edit word: %v. Try once again.\n", err)
			if err := a.pause(); err != nil {
				return w, false, err
			}
			continue
		}
		return updated, true, nil
	}
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return strings.Repeat("*", 10)
}
