package knol

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/conorfennell/revisit/internal/domain"
)

// Normalize concatenates the identifying parts of a review item after
// cleaning each one. It trims whitespace, lowercases, and normalizes line
// endings for each field before joining them.
func Normalize(title, content, document string, page int) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	// Fields are joined with a newline so "ab"+"c" and "a"+"bc" differ.
	return strings.Join([]string{
		normalizePart(title),
		normalizePart(content),
		normalizePart(document),
		strconv.Itoa(page),
	}, "\n")
}

// Hash returns the SHA-256 of the normalized parts as a hex string.
func Hash(title, content, document string, page int) string {
	hashBytes := sha256.Sum256([]byte(Normalize(title, content, document, page)))
	return fmt.Sprintf("%x", hashBytes)
}

// ItemHash fingerprints an existing review item the same way Hash does.
func ItemHash(it domain.ReviewItem) string {
	return Hash(it.Title, it.Content, it.Source.DocumentName, it.Source.PageNumber)
}
