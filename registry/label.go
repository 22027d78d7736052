// Package registry models package identities and releases, and provides the
// client used to talk to a package registry.
package registry

import (
	"github.com/componentry/wkg/errors"
)

// Label is a validated kebab-case identifier segment: one or more words of
// lowercase ASCII letters and digits, each word starting with a letter, words
// joined by single hyphens. Construct only via ParseLabel.
type Label string

// ParseLabel validates text as a Label.
func ParseLabel(text string) (Label, error) {
	if text == "" {
		return "", errors.Wrap(errors.ErrInvalidReference, "empty label")
	}

	wordStart := true
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '-':
			if wordStart {
				// Catches leading and consecutive hyphens
				return "", errors.NewInvalidReference("label %q has a misplaced hyphen", text)
			}
			wordStart = true
		case c >= 'a' && c <= 'z':
			wordStart = false
		case c >= '0' && c <= '9':
			if wordStart {
				return "", errors.NewInvalidReference("label %q has a word starting with a digit", text)
			}
		default:
			return "", errors.NewInvalidReference("label %q contains invalid character %q", text, string(c))
		}
	}
	if wordStart {
		// Trailing hyphen leaves an unfinished word
		return "", errors.NewInvalidReference("label %q has a trailing hyphen", text)
	}

	return Label(text), nil
}

// String returns the label text.
func (l Label) String() string {
	return string(l)
}
