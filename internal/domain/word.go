package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrDuplicateWord = errors.New("word already exists")
	ErrInvalidTag    = errors.New("invalid tag")
	ErrInvalidWord   = errors.New("invalid word")
	ErrWordNotFound  = errors.New("word not found")
)

// Tag categorises a word. Only the values below are valid.
type Tag string

const (
	TagWord        Tag = "word"
	TagPhrasalVerb Tag = "phrasalVerb"
	TagCollocation Tag = "collocation"
)

// Tags lists the full tag vocabulary in display order.
var Tags = []Tag{TagWord, TagPhrasalVerb, TagCollocation}

var tagAliases = map[string]Tag{
	"w": TagWord,
	"p": TagPhrasalVerb,
	"c": TagCollocation,
}

// ParseTag accepts either a full tag name or its one-letter alias.
func ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if t, ok := tagAliases[s]; ok {
		return t, nil
	}
	for _, t := range Tags {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTag, s)
}

// ParseTags splits a comma separated list of tags. Blank items are skipped.
func ParseTags(s string) ([]Tag, error) {
	var tags []Tag
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseTag(part)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// Answer is one entry of a word's answer history.
type Answer struct {
	Correct bool
	AskedAt time.Time
}

// Word is a vocabulary entry together with its review state.
// History is append-only and NextReviewDate is always derived from it.
type Word struct {
	ID             int64
	Word           string
	Translation    string
	Example        string
	Tags           []Tag
	NextReviewDate time.Time
	History        []Answer
}

// IsDue reports whether the word should be reviewed on the given day.
func (w Word) IsDue(today time.Time) bool {
	return !w.NextReviewDate.After(today)
}

// WordInput holds the user-editable fields of a word.
type WordInput struct {
	Word        string `validate:"required"`
	Translation string `validate:"required"`
	Example     string
	Tags        []Tag `validate:"dive,oneof=word phrasalVerb collocation"`
}

// Normalize trims surrounding whitespace from the text fields.
func (in WordInput) Normalize() WordInput {
	in.Word = strings.TrimSpace(in.Word)
	in.Translation = strings.TrimSpace(in.Translation)
	in.Example = strings.TrimSpace(in.Example)
	return in
}

// Input returns the editable part of the word.
func (w Word) Input() WordInput {
	return WordInput{
		Word:        w.Word,
		Translation: w.Translation,
		Example:     w.Example,
		Tags:        append([]Tag(nil), w.Tags...),
	}
}

// Apply copies the editable fields of in onto the word, leaving the review
// state untouched.
func (w Word) Apply(in WordInput) Word {
	w.Word = in.Word
	w.Translation = in.Translation
	w.Example = in.Example
	w.Tags = append([]Tag(nil), in.Tags...)
	return w
}
