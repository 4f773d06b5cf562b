// Package utils provides shared utilities for text, math, and logging.
package utils

import "strings"

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// FirstWords returns the first n words of s followed by "...", or s unchanged
// when it has n words or fewer.
func FirstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + "..."
}

// FirstSentences returns the first n ". "-separated sentences of s, ending with a period.
func FirstSentences(s string, n int) string {
	sentences := strings.Split(s, ". ")
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	out := strings.Join(sentences, ". ")
	if !strings.HasSuffix(out, ".") {
		out += "."
	}
	return out
}
