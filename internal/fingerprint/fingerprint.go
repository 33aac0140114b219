package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/wordpractice/internal/domain"
)

// Normalize concatenates the entry's fields after cleaning each part.
// It trims whitespace and normalizes line endings; case is kept because
// words are unique as entered.
func Normalize(in domain.WordInput) string {
	normalizePart := func(part string) string {
		p := strings.TrimSpace(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		tags = append(tags, string(t))
	}

	// Fields are joined with a newline so adjacent fields cannot run together.
	return strings.Join([]string{
		normalizePart(in.Word),
		normalizePart(in.Translation),
		normalizePart(in.Example),
		strings.Join(tags, ","),
	}, "\n")
}

// Hash normalizes an imported entry and returns its SHA-256 hash as a hex string.
func Hash(in domain.WordInput) string {
	hashBytes := sha256.Sum256([]byte(Normalize(in)))
	return fmt.Sprintf("%x", hashBytes)
}
