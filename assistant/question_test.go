package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name     string
		question string
		maxLen   int
		want     string
	}{
		{"ok", "top 10 products", 0, ""},
		{"empty", "", 0, MsgEmptyQuestion},
		{"blank", " \t\n", 0, MsgEmptyQuestion},
		{"at default limit", strings.Repeat("é", 1000), 0, ""},
		{"over default limit", strings.Repeat("é", 1001), 0, MsgQuestionTooLong},
		{"custom limit", "abcdef", 5, MsgQuestionTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateQuestion(tt.question, tt.maxLen))
		})
	}
}
