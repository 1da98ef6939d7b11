package utils

import (
	"math"
	"strings"
)

// SplitLines breaks content into lines. "\n", "\r\n" and "\r" all terminate a
// line, and a trailing terminator does not produce an empty last line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// SplitFields splits one CSV line on commas. Quoting is not interpreted, so a
// quoted comma still separates fields.
func SplitFields(line string) []string {
	return strings.Split(line, ",")
}

// Percentage returns count/total*100 rounded half to even (2.5 -> 2, 3.5 -> 4).
func Percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(count) / float64(total) * 100))
}
