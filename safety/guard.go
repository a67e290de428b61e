// Package safety screens chat messages before they reach the agents.
package safety

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength bounds a chat message in characters.
const DefaultMaxLength = 2000

// DefaultInjectionThreshold is the score at which a message is rejected.
const DefaultInjectionThreshold = 10

// ValidationError is returned when a message is rejected.
type ValidationError struct {
	Reason   string
	Score    int
	Patterns []string
}

// Error returns the rejection reason.
func (e *ValidationError) Error() string {
	return e.Reason
}

var dangerousPatterns = []string{
	`ignore\s+(?:(?:all|the|any|of|your|my)\s+)*(?:(?:previous|above|prior|earlier)\s+)?(?:instructions?|rules|prompts?)`,
	`disregard\s+(?:(?:all|the|any|of|your|my)\s+)*(?:previous|above|prior|earlier|instructions?|rules)`,
	`forget\s+(everything|all|previous)`,
	`new\s+instructions?:`,
	`system\s*(prompt|message)?:`,
	`you\s+are\s+now`,
	`act\s+as\s+(if|though)`,
	`pretend\s+(you|to)\s+(are|be)`,
	`roleplay\s+as`,
	`developer\s+mode`,
	`jailbreak`,
	`</?\s*system\s*>`,
	`<\|.*?\|>`,
	`\[INST\]`,
	// Forged ReAct observations or answers.
	`(?m)^\s*(observation|final answer|action input)\s*:`,
}

var suspiciousKeywords = map[string]int{
	"ignore":       3,
	"disregard":    3,
	"override":     2,
	"bypass":       3,
	"jailbreak":    5,
	"prompt":       2,
	"injection":    4,
	"system":       2,
	"sudo":         3,
	"instructions": 2,
}

var (
	compiledPatterns = compile(dangerousPatterns)
	wordRe           = regexp.MustCompile(`\w+`)
	specialCharsRe   = regexp.MustCompile(`[<>{}[\]|]`)
)

func compile(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// PromptInjectionDetector scores text for prompt injection attempts. Each
// dangerous pattern adds 10, suspicious keywords add their weight and a burst
// of markup characters adds 2.
//
// Example:
//
//	detector := NewPromptInjectionDetector(10)
//	isInjection, score, patterns := detector.Detect("Ignore all previous instructions")
type PromptInjectionDetector struct {
	threshold int
}

// NewPromptInjectionDetector creates a detector. threshold <= 0 uses
// DefaultInjectionThreshold.
func NewPromptInjectionDetector(threshold int) *PromptInjectionDetector {
	if threshold <= 0 {
		threshold = DefaultInjectionThreshold
	}
	return &PromptInjectionDetector{threshold: threshold}
}

// Detect returns whether text reaches the threshold, its score and the
// patterns that matched.
func (d *PromptInjectionDetector) Detect(text string) (bool, int, []string) {
	score := 0
	var matched []string

	for i, re := range compiledPatterns {
		if re.MatchString(text) {
			score += 10
			matched = append(matched, dangerousPatterns[i])
		}
	}

	for _, word := range wordRe.FindAllString(strings.ToLower(text), -1) {
		score += suspiciousKeywords[word]
	}

	if len(specialCharsRe.FindAllString(text, -1)) > 5 {
		score += 2
	}

	return score >= d.threshold, score, matched
}

// MessageGuard rejects chat messages that are too long or, when a detector is
// set, look like prompt injection.
type MessageGuard struct {
	maxLength int
	detector  *PromptInjectionDetector
}

// NewMessageGuard creates a guard. maxLength <= 0 uses DefaultMaxLength; a nil
// detector skips injection checks.
func NewMessageGuard(maxLength int, detector *PromptInjectionDetector) *MessageGuard {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &MessageGuard{maxLength: maxLength, detector: detector}
}

// Check returns a *ValidationError when message is rejected.
func (g *MessageGuard) Check(message string) error {
	if n := utf8.RuneCountInString(message); n > g.maxLength {
		return &ValidationError{Reason: fmt.Sprintf("message exceeds maximum length (%d > %d chars)", n, g.maxLength)}
	}
	if g.detector == nil {
		return nil
	}
	if injection, score, patterns := g.detector.Detect(message); injection {
		return &ValidationError{Reason: "message looks like a prompt injection attempt", Score: score, Patterns: patterns}
	}
	return nil
}
