package page

import (
	_ "embed"
	"os"
)

//go:embed layout.html
var defaultLayout string

// LoadLayout returns the page skeleton at path, or the built-in one when
// path is empty.
func LoadLayout(path string) (string, error) {
	if path == "" {
		return defaultLayout, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
