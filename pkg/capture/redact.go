package capture

import (
	"regexp"
	"strings"
)

// fieldClass is the heuristic sensitivity classification of an input field.
type fieldClass string

const (
	fieldPassword fieldClass = "password"
	fieldUsername fieldClass = "username"
	fieldEmail    fieldClass = "email"
	fieldFreeText fieldClass = "free-text"
)

// Placeholder tokens substituted for sensitive values in emitted records.
// The real value never leaves the session's transient state.
const (
	PlaceholderPassword = "{{PASSWORD}}"
	PlaceholderUsername = "{{USERNAME}}"
	PlaceholderEmail    = "{{EMAIL}}"
)

var (
	passwordPattern = regexp.MustCompile(`(?i)pass(word|wd)?|pwd|secret|pin\b`)
	usernamePattern = regexp.MustCompile(`(?i)user(name)?|login|account`)
	emailPattern    = regexp.MustCompile(`(?i)e?-?mail`)
)

// classifyField inspects type, name, id and placeholder attributes, in that
// order of confidence.
func classifyField(target ElementInfo) fieldClass {
	if strings.EqualFold(target.InputType, "password") {
		return fieldPassword
	}

	if strings.EqualFold(target.InputType, "email") {
		return fieldEmail
	}

	hints := strings.Join([]string{target.InputName, target.InputID, target.Placeholder}, " ")

	switch {
	case passwordPattern.MatchString(hints):
		return fieldPassword
	case emailPattern.MatchString(hints):
		return fieldEmail
	case usernamePattern.MatchString(hints):
		return fieldUsername
	default:
		return fieldFreeText
	}
}

// redactValue swaps sensitive values for their placeholder token. Free-text
// values pass through unchanged.
func redactValue(class fieldClass, value string) (string, bool) {
	switch class {
	case fieldPassword:
		return PlaceholderPassword, true
	case fieldUsername:
		return PlaceholderUsername, true
	case fieldEmail:
		return PlaceholderEmail, true
	default:
		return value, false
	}
}
