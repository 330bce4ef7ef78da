package model

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe     = regexp.MustCompile(`\s+`)
	spaceBeforeRefRe = regexp.MustCompile(`[ ]+([*&])`)
	angleSpaceRe     = regexp.MustCompile(`\s*([<>])\s*`)
	angleCharsRe     = regexp.MustCompile(`[<>]`)
	templateArgsRe   = regexp.MustCompile(`<.*>`)
	nsTrailingArgsRe = regexp.MustCompile(`(.+)<[^>]+>`)
	nsArgsRe         = regexp.MustCompile(`<([^>]+)>`)
	nsTrailingSepRe  = regexp.MustCompile(`:+$`)
)

// CleanType normalises a C++ type string: runs of whitespace become one
// space, spaces before "*" and "&" are dropped, and whitespace around angle
// brackets is removed.
func CleanType(s string) string {
	s = whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	s = spaceBeforeRefRe.ReplaceAllString(s, "$1")
	return angleSpaceRe.ReplaceAllString(s, "$1")
}

// CleanName drops angle bracket characters and replaces "-" with "_".
func CleanName(s string) string {
	return angleCharsRe.ReplaceAllString(strings.ReplaceAll(s, "-", "_"), "")
}

// StripTemplateArgs removes a template argument list from a type name:
// "Base<T, U>" becomes "Base".
func StripTemplateArgs(s string) string {
	return strings.TrimSpace(templateArgsRe.ReplaceAllString(s, ""))
}

// CleanNamespace removes template arguments and leading or trailing scope
// separators from a namespace path.
func CleanNamespace(s string) string {
	s = nsTrailingArgsRe.ReplaceAllString(s, "$1")
	s = nsArgsRe.ReplaceAllString(s, "$1")
	s = nsTrailingSepRe.ReplaceAllString(s, "")
	return strings.TrimLeft(strings.TrimSpace(s), ":")
}

// SingleLine collapses a possibly multi-line string into one line with
// single spaces.
func SingleLine(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
