package strutils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Used by ToSnakeCase.
	matchFirstRegexp = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllRegexp   = regexp.MustCompile("([a-z0-9])([A-Z])")

	// Used by FormatCommas.
	commaRegexp = regexp.MustCompile(`(\d+)(\d{3})`)
)

// ToSnakeCase converts a CamelCase string to snake_case.
// Example: "MyVariableName" -> "my_variable_name"
func ToSnakeCase(str string) string {
	snakeCaseString := matchFirstRegexp.ReplaceAllString(str, "${1}_${2}")
	snakeCaseString = matchAllRegexp.ReplaceAllString(snakeCaseString, "${1}_${2}")
	return strings.ToLower(snakeCaseString)
}

// NormalizeSpaces trims leading/trailing whitespace and collapses
// internal runs of whitespace to a single space.
// Example: "  hello   world  " -> "hello world"
func NormalizeSpaces(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}

// NormalizeMultiLineSpaces normalizes each line of a multi-line string
// and collapses consecutive blank lines into one. Leading/trailing blank
// lines are dropped too.
func NormalizeMultiLineSpaces(s string) string {
	var ret []string
	var appendedEmptyLine bool

	lines := strings.Split(s, "\n")
	for _, line := range lines {
		trimLine := NormalizeSpaces(line)
		if trimLine != "" {
			appendedEmptyLine = false
			ret = append(ret, trimLine)
		} else {
			if !appendedEmptyLine {
				appendedEmptyLine = true
				ret = append(ret, "")
			}
		}
	}

	// Drop leading/trailing blank lines.
	if len(ret) >= 2 {
		if ret[0] == "" {
			ret = ret[1:]
		}
		if len(ret) > 0 && ret[len(ret)-1] == "" {
			ret = ret[:len(ret)-1]
		}
	}

	return strings.Join(ret, "\r\n")
}

// FormatCommas formats an integer with thousands separators.
// Example: 1234567 -> "1,234,567"
func FormatCommas(num int) string {
	str := fmt.Sprintf("%d", num)
	for {
		result := commaRegexp.ReplaceAllString(str, "$1,$2")
		if result == str {
			break
		}
		str = result
	}
	return str
}

// SplitAndTrim splits s on sep, trims whitespace from each token, and
// drops empty tokens. Returns nil if nothing remains.
// Example: "a, , b,c" (sep ",") -> ["a", "b", "c"]
func SplitAndTrim(s, sep string) []string {
	tokens := strings.Split(s, sep)
	if len(tokens) == 0 {
		return nil
	}

	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token != "" {
			result = append(result, token)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}
