package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrGenerationFailed = errors.New("content generation failed")
	ErrUnusableContent  = errors.New("unusable generated content")
)

type Request struct {
	Kind     Kind
	Language string
	Vars     map[string]string
}

// Generator produces file contents for a request. Implementations never
// return error text as content.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Clean strips a surrounding markdown code fence and rejects empty or
// error-shaped replies.
func Clean(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if _, rest, ok := strings.Cut(text, "\n"); ok {
			text = rest
		} else {
			text = ""
		}
	}
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return "", fmt.Errorf("%w: empty reply", ErrUnusableContent)
	}
	if looksLikeError(text) {
		return "", fmt.Errorf("%w: %s", ErrUnusableContent, Snippet(text, 80))
	}
	return text, nil
}

func looksLikeError(text string) bool {
	first, _, _ := strings.Cut(text, "\n")
	first = strings.ToLower(strings.TrimSpace(first))
	return strings.HasPrefix(first, "error:") || strings.HasPrefix(first, "error generating content")
}

// Hash returns the hex sha256 of content.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Snippet returns at most n runes of content.
func Snippet(content string, n int) string {
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n])
}
