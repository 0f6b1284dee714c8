package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare json untouched",
			input: `{"steps": []}`,
			want:  `{"steps": []}`,
		},
		{
			name:  "json fence stripped",
			input: "```json\n{\"steps\": []}\n```",
			want:  `{"steps": []}`,
		},
		{
			name:  "generic fence stripped",
			input: "```\n{\"steps\": []}\n```",
			want:  `{"steps": []}`,
		},
		{
			name:  "fence with language identifier",
			input: "```javascript\n{\"steps\": []}\n```",
			want:  `{"steps": []}`,
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  \n{\"a\": 1}\n  ",
			want:  `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.input))
		})
	}
}
