package cli

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/conorfennell/wordpractice/internal/domain"
	"github.com/conorfennell/wordpractice/internal/query"
)

func (a *App) listWords(ctx context.Context) error {
	a.clear()
	a.println("List words panel.")
	search, err := a.prompt("Search words containing (press 'Enter' for all): ")
	if err != nil {
		return err
	}

	base := query.New().OrderByID()
	if search != "" {
		base = base.WordContains(search)
	}

	offset := 0
	for {
		// One extra row tells whether a next page exists.
		words, err := a.words.FindWords(ctx, base.Page(offset, a.opts.PageSize+1))
		if err != nil {
			return err
		}
		more := len(words) > a.opts.PageSize
		if more {
			words = words[:a.opts.PageSize]
		}

		a.clear()
		a.printf("List words panel. Page %d.\n", offset/a.opts.PageSize+1)
		if len(words) == 0 {
			a.println("No words found.")
		}
		for _, w := range words {
			a.printf("%d. %s - %s %s\n", w.ID, w.Word, w.Translation, formatTags(w.Tags))
		}

		input, err := a.prompt("Actions: 'n' -> next page, 'b' -> previous page, 'd <id>' -> edit word, 'e' -> exit to previous menu: ")
		if err != nil {
			return err
		}

		switch {
		case input == "e":
			return nil
		case input == "n":
			if more {
				offset += a.opts.PageSize
			}
		case input == "b":
			offset = max(offset-a.opts.PageSize, 0)
		case strings.HasPrefix(input, "d"):
			if err := a.editByID(ctx, strings.TrimSpace(strings.TrimPrefix(input, "d"))); err != nil {
				return err
			}
		default:
			a.println("Unknown command. Try again one more time.")
			if err := a.pause(); err != nil {
				return err
			}
		}
	}
}

func (a *App) editByID(ctx context.Context, raw string) error {
	if raw == "" {
		var err error
		raw, err = a.promptRequired("Enter word id: ", "", "Word id should be a number")
		if err != nil {
			return err
		}
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		a.println("Word id should be a number.")
		return a.pause()
	}

	w, err := a.words.GetWord(ctx, id)
	if errors.Is(err, domain.ErrWordNotFound) {
		a.printf("No word with id %d.\n", id)
		return a.pause()
	}
	if err != nil {
		return err
	}

	if _, saved, err := a.editWord(ctx, w); err != nil {
		return err
	} else if saved {
		a.println("Word has been updated.")
		return a.pause()
	}
	return nil
}
