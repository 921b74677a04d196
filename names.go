package fieldchat

import (
	"fmt"
	"regexp"
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateName checks that a task name and optional environment are safe for file paths,
// URLs and cache keys: letters, digits, '_' and '-', not starting with a separator.
// env may be empty.
func ValidateName(name, env string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: name %q", ErrInvalidName, name)
	}
	if env != "" && !nameRe.MatchString(env) {
		return fmt.Errorf("%w: env %q", ErrInvalidName, env)
	}
	return nil
}
