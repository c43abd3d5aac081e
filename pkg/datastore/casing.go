// ABOUTME: Property-name casing rules for the record codec
// ABOUTME: Transforms Go field names into their stored wire names

package datastore

import (
	"fmt"
	"strings"
	"unicode"
)

// Casing is a naming rule applied to every field or variant name the codec
// derives, unless an explicit rename overrides it.
type Casing uint8

const (
	// CasingCamel is the default rule.
	CasingCamel Casing = iota
	CasingLower
	CasingUpper
	CasingPascal
	CasingSnake
	CasingScreamingSnake
	CasingKebab
	CasingScreamingKebab
)

// parseCasing reads a rename_all tag value.
func parseCasing(s string) (Casing, error) {
	switch s {
	case "lowercase":
		return CasingLower, nil
	case "UPPERCASE":
		return CasingUpper, nil
	case "PascalCase":
		return CasingPascal, nil
	case "camelCase":
		return CasingCamel, nil
	case "snake_case":
		return CasingSnake, nil
	case "SCREAMING_SNAKE_CASE":
		return CasingScreamingSnake, nil
	case "kebab-case":
		return CasingKebab, nil
	case "SCREAMING-KEBAB-CASE":
		return CasingScreamingKebab, nil
	default:
		return CasingCamel, fmt.Errorf("datastore: unknown rename_all casing %q", s)
	}
}

// apply transforms one identifier.
func (c Casing) apply(name string) string {
	words := splitWords(name)
	switch c {
	case CasingLower:
		return strings.ToLower(strings.Join(words, ""))
	case CasingUpper:
		return strings.ToUpper(strings.Join(words, ""))
	case CasingPascal:
		for i, w := range words {
			words[i] = titleWord(w)
		}
		return strings.Join(words, "")
	case CasingCamel:
		for i, w := range words {
			if i == 0 {
				words[i] = strings.ToLower(w)
			} else {
				words[i] = titleWord(w)
			}
		}
		return strings.Join(words, "")
	case CasingSnake:
		return strings.ToLower(strings.Join(words, "_"))
	case CasingScreamingSnake:
		return strings.ToUpper(strings.Join(words, "_"))
	case CasingKebab:
		return strings.ToLower(strings.Join(words, "-"))
	case CasingScreamingKebab:
		return strings.ToUpper(strings.Join(words, "-"))
	default:
		return name
	}
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}

// splitWords breaks a Go identifier into words at case boundaries. An
// uppercase run like "HTTP" in "HTTPServer" stays one word, with the final
// capital starting the next word. Underscores and hyphens also separate.
func splitWords(name string) []string {
	var words []string
	runes := []rune(name)
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := false
		switch {
		case cur == '_' || cur == '-':
			words = appendWord(words, string(runes[start:i]))
			start = i + 1
			continue
		case unicode.IsUpper(cur) && !unicode.IsUpper(prev) && prev != '_' && prev != '-':
			boundary = true
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			boundary = true
		}
		if boundary {
			words = appendWord(words, string(runes[start:i]))
			start = i
		}
	}
	return appendWord(words, string(runes[start:]))
}

func appendWord(words []string, w string) []string {
	if w == "" {
		return words
	}
	return append(words, w)
}
