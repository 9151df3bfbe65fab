package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	plainPolicy = bluemonday.StrictPolicy()
	richPolicy  = bluemonday.UGCPolicy()
)

// plainText strips every tag from user input.
func plainText(value string) string {
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(value)))
}

// richText keeps the safe subset of HTML used in course descriptions.
func richText(value string) string {
	return strings.TrimSpace(richPolicy.Sanitize(value))
}

func requireText(field, value string) (string, error) {
	cleaned := plainText(value)
	if cleaned == "" {
		return "", fieldError(field, "is required")
	}
	return cleaned, nil
}
