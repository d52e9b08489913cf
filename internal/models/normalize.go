package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// Normalize folds labels, values, skills and configured tags to one
// comparable form: NFC, single spaces, lower case.
func Normalize(value string) string {
	value = strings.Join(strings.Fields(value), " ")
	return lower.String(norm.NFC.String(value))
}
