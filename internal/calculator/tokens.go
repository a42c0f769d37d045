package calculator

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ignite/eligibility-api/internal/person"
)

// The token expander rewrites [[...]] tokens in user-visible strings:
// cohort descriptions, status text, action descriptions and URL labels.
//
//	[[PERSON.<ATTR>]]                  PERSON-level attribute
//	[[TARGET.<TARGET>.<ATTR>]]         TARGET-level attribute
//	[[...:DATE(<format>)]]             reformat a YYYYMMDD value
//
// Missing attributes expand to empty text; malformed tokens fail the request
// with ErrInvalidToken.

var tokenPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// expandTokens resolves every token in s against the person view.
func expandTokens(s string, view *person.View) (string, error) {
	var tokenErr error
	out := tokenPattern.ReplaceAllStringFunc(s, func(match string) string {
		if tokenErr != nil {
			return match
		}
		inner := match[2 : len(match)-2]
		value, err := resolveToken(inner, view)
		if err != nil {
			tokenErr = err
			return match
		}
		return value
	})
	if tokenErr != nil {
		return "", tokenErr
	}
	return out, nil
}

func resolveToken(inner string, view *person.View) (string, error) {
	body, conversion, hasConversion := strings.Cut(inner, ":")

	var value string
	parts := strings.Split(body, ".")
	switch {
	case len(parts) == 2 && parts[0] == "PERSON":
		value, _ = view.PersonAttr(parts[1])
	case len(parts) == 3 && parts[0] == "TARGET":
		value, _ = view.TargetAttr(parts[1], parts[2])
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidToken, inner)
	}

	if !hasConversion {
		return value, nil
	}
	format, ok := strings.CutPrefix(conversion, "DATE(")
	if !ok || !strings.HasSuffix(format, ")") {
		return "", fmt.Errorf("%w: unsupported conversion in %q", ErrInvalidToken, inner)
	}
	format = strings.TrimSuffix(format, ")")
	if value == "" {
		return "", nil
	}
	return formatDate(value, format, inner)
}

// formatDate reformats a YYYYMMDD value with a strftime-style format.
// Supported verbs: %Y %m %d %B %b %e. Anything else is an invalid token.
func formatDate(value, format, token string) (string, error) {
	layout, err := strftimeToGo(format)
	if err != nil {
		return "", fmt.Errorf("%w: %v in %q", ErrInvalidToken, err, token)
	}
	t, err := time.ParseInLocation(attrLayout, value, time.UTC)
	if err != nil {
		// A value that is not a date is tolerated; the raw text is shown.
		return value, nil
	}
	return t.Format(layout), nil
}

func strftimeToGo(format string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			b.WriteByte(format[i])
			continue
		}
		i++
		if i >= len(format) {
			return "", fmt.Errorf("trailing %% in date format %q", format)
		}
		switch format[i] {
		case 'Y':
			b.WriteString("2006")
		case 'm':
			b.WriteString("01")
		case 'd':
			b.WriteString("02")
		case 'B':
			b.WriteString("January")
		case 'b':
			b.WriteString("Jan")
		case 'e':
			b.WriteString("_2")
		case '%':
			b.WriteByte('%')
		default:
			return "", fmt.Errorf("unsupported date verb %%%c", format[i])
		}
	}
	return b.String(), nil
}
