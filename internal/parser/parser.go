package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/wordpractice/internal/domain"
)

const (
	wordPrefix        = "W:"
	translationPrefix = "T:"
	examplePrefix     = "E:"
	tagsPrefix        = "G:"
)

type state int

const (
	seeking state = iota
	readingTranslation
	readingExample
)

// Entry is a word as written in a word list, before validation.
type Entry struct {
	Word        string
	Translation string
	Example     string
	Tags        string // comma separated names or aliases
}

// Input converts the entry into a word input, resolving its tags.
func (e Entry) Input() (domain.WordInput, error) {
	tags, err := domain.ParseTags(e.Tags)
	if err != nil {
		return domain.WordInput{}, err
	}
	return domain.WordInput{
		Word:        e.Word,
		Translation: e.Translation,
		Example:     e.Example,
		Tags:        tags,
	}.Normalize(), nil
}

// ParseFile reads a word list from the given path.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a markdown word list. Each entry starts with a "W:" line,
// followed by "T:", "E:" and "G:" lines in any order. Translations and
// examples may continue over several lines. Entries end at "---" or at the
// next "W:" line.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var current Entry
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) > 0 {
			content := strings.TrimSpace(strings.Join(block, "\n"))
			switch currentState {
			case readingTranslation:
				current.Translation = content
			case readingExample:
				current.Example = content
			}
			block = nil
		}
	}

	finishEntry := func() {
		flushBlock()
		if current.Word != "" {
			entries = append(entries, current)
		}
		current = Entry{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "---":
			finishEntry()
		case strings.HasPrefix(line, wordPrefix):
			finishEntry()
			current.Word = field(line, wordPrefix)
		case strings.HasPrefix(line, translationPrefix):
			flushBlock()
			currentState = readingTranslation
			block = append(block, field(line, translationPrefix))
		case strings.HasPrefix(line, examplePrefix):
			flushBlock()
			currentState = readingExample
			block = append(block, field(line, examplePrefix))
		case strings.HasPrefix(line, tagsPrefix):
			flushBlock()
			currentState = seeking
			current.Tags = field(line, tagsPrefix)
		case currentState != seeking:
			block = append(block, line)
		}
	}

	finishEntry() // Finish the very last entry in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func field(line, prefix string) string {
	return strings.TrimSpace(line[len(prefix):])
}
