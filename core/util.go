package core

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Getwd finds the project root: the closest parent directory holding a go.mod file.
// go test runs inside the package directory, so the current working directory cannot be trusted.
// Falls back to the current working directory when no go.mod is found (e.g. in a container image).
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

// Slugify lowers `s` and joins its alphanumeric words with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Percent returns round(100 * part / total), or 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*part + total) / (2 * total)
}

// ErrInvalidOrdering is returned when a reorder request is not a permutation of the current items.
var ErrInvalidOrdering = NewValidationError(
	errors.New("ids must list every item exactly once"),
	FieldError{Field: "ids", Error: "ids must list every item exactly once"},
)

// CheckPermutation verifies that ids holds exactly the elements of current, in any order.
func CheckPermutation(current, ids []string) error {
	if len(current) != len(ids) {
		return ErrInvalidOrdering
	}
	seen := make(map[string]bool, len(current))
	for _, id := range current {
		seen[id] = false
	}
	for _, id := range ids {
		done, ok := seen[id]
		if !ok || done {
			return ErrInvalidOrdering
		}
		seen[id] = true
	}
	return nil
}
