package assistant

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxQuestionLength bounds a question in characters.
const DefaultMaxQuestionLength = 1000

// Validation messages shown to the user as-is.
const (
	MsgEmptyQuestion   = "Question cannot be empty."
	MsgQuestionTooLong = "Question is too long."
)

// ValidateQuestion returns the message explaining why question cannot be
// asked, or "" when it can. maxLen <= 0 means DefaultMaxQuestionLength.
func ValidateQuestion(question string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxQuestionLength
	}
	if strings.TrimSpace(question) == "" {
		return MsgEmptyQuestion
	}
	if utf8.RuneCountInString(question) > maxLen {
		return MsgQuestionTooLong
	}
	return ""
}
