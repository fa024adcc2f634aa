package level

import "fmt"

// Level is the authorization boundary a search is evaluated against.
type Level string

// Search level constants. The zero value means "not supplied".
const (
	Global  Level = "global"
	Group   Level = "group"
	Project Level = "project"
)

// IsValid checks if the level is one of the supported values.
func (l Level) IsValid() bool {
	return l == Global || l == Group || l == Project
}

// IsSet reports whether a level was supplied at all.
func (l Level) IsSet() bool { return l != "" }

// Parse validates a raw level string. Empty input yields the zero Level.
func Parse(s string) (Level, error) {
	l := Level(s)
	if s == "" || l.IsValid() {
		return l, nil
	}
	return "", fmt.Errorf("invalid search level: %q", s)
}
