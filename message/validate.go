package message

import (
	"regexp"
	"unicode"

	"github.com/teranos/gitpulse/errors"
)

// conventionalPattern is the shape every commit message must satisfy:
// a known type, optional scope, then a non-empty summary.
var conventionalPattern = regexp.MustCompile(`^(feat|fix|chore|docs|style|refactor|test|perf)(\([\w-]+\))?: .+`)

// Validate checks a candidate commit message against the conventional commit
// pattern, the configured length bound, and a control-character ban.
func Validate(text string, maxLength int) error {
	if text == "" {
		return errors.New("message is empty")
	}

	if len(text) > maxLength {
		return errors.Newf("message length %d exceeds maximum %d", len(text), maxLength)
	}

	for _, r := range text {
		if unicode.IsControl(r) {
			return errors.New("message contains control characters")
		}
	}

	if !conventionalPattern.MatchString(text) {
		return errors.Newf("message does not match conventional commit format: %q", text)
	}

	return nil
}
