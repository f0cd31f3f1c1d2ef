package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parentId"`
	Name     string  `json:"name"`
}

type payload struct {
	Topic     string  `json:"topic"`
	Subtopics []entry `json:"subtopics"`
}

func TestExtractAndParseJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTopic string
		wantLen   int
		wantErr   bool
	}{
		{
			name:      "plain object",
			input:     `{"topic":"Learn Guitar","subtopics":[{"id":"a","parentId":null,"name":"Basics"}]}`,
			wantTopic: "Learn Guitar",
			wantLen:   1,
		},
		{
			name:      "trailing prose after last brace",
			input:     `{"topic":"Learn Guitar","subtopics":[{"id":"a","parentId":null,"name":"Basics"}]} I hope this breakdown helps!`,
			wantTopic: "Learn Guitar",
			wantLen:   1,
		},
		{
			name:      "leading prose",
			input:     "Here is your mind map:\n{\"topic\":\"T\",\"subtopics\":[]}",
			wantTopic: "T",
		},
		{
			name:      "markdown fence",
			input:     "```json\n{\"topic\":\"T\",\"subtopics\":[{\"id\":\"a\",\"name\":\"A\"},{\"id\":\"b\",\"name\":\"B\"}]}\n```",
			wantTopic: "T",
			wantLen:   2,
		},
		{
			name:      "trailing comma",
			input:     `{"topic":"T","subtopics":[{"id":"a","name":"A"},],}`,
			wantTopic: "T",
			wantLen:   1,
		},
		{
			name:      "missing comma between array objects",
			input:     "{\"topic\":\"T\",\"subtopics\":[{\"id\":\"a\",\"name\":\"A\"}\n{\"id\":\"b\",\"name\":\"B\"}]}",
			wantTopic: "T",
			wantLen:   2,
		},
		{
			name:      "single quoted values",
			input:     `{'topic': 'T', 'subtopics': []}`,
			wantTopic: "T",
		},
		{
			name:      "invalid escape in string",
			input:     `{"topic":"C:\code\project","subtopics":[]}`,
			wantTopic: `C:\code\project`,
		},
		{
			name:      "raw newline in string",
			input:     "{\"topic\":\"line one\nline two\",\"subtopics\":[]}",
			wantTopic: "line one\nline two",
		},
		{
			name:      "truncated mid string",
			input:     `{"topic":"T","subtopics":[{"id":"a","name":"A"},{"id":"b","name":"Unfini`,
			wantTopic: "T",
			wantLen:   1,
		},
		{
			name:      "json encoded as a string",
			input:     `"{\"topic\":\"T\",\"subtopics\":[]}"`,
			wantTopic: "T",
		},
		{name: "empty", input: "   ", wantErr: true},
		{name: "prose only", input: "Sorry, I cannot help with that.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractAndParseJSON[payload](tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTopic, got.Topic)
			assert.Len(t, got.Subtopics, tt.wantLen)
		})
	}
}

func TestExtractAndParseJSONNoJSON(t *testing.T) {
	_, err := ExtractAndParseJSON[payload]("no braces here")
	assert.True(t, errors.Is(err, ErrNoJSON))
}

func TestExtractAndParseJSONNullParent(t *testing.T) {
	got, err := ExtractAndParseJSON[payload](`{"topic":"T","subtopics":[{"id":"a","parentId":null,"name":"A"},{"id":"b","parentId":"a","name":"B"}]}`)
	require.NoError(t, err)
	require.Len(t, got.Subtopics, 2)
	assert.Nil(t, got.Subtopics[0].ParentID)
	require.NotNil(t, got.Subtopics[1].ParentID)
	assert.Equal(t, "a", *got.Subtopics[1].ParentID)
}

func TestTruncateToLastBrace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`  {"a":1} trailing`, `{"a":1}`},
		{`{"a":{"b":2}} ok }`, `{"a":{"b":2}} ok }`},
		{`[1,2] done`, `[1,2]`},
		{`no closers`, `no closers`},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TruncateToLastBrace(tt.in), "input %q", tt.in)
	}
}

func TestSanitizeStrings(t *testing.T) {
	assert.Equal(t, `{"p":"\\d+"}`, sanitizeStrings(`{"p":"\d+"}`))
	assert.Equal(t, `{"p":"a\nb"}`, sanitizeStrings("{\"p\":\"a\nb\"}"))
	assert.Equal(t, `{"p":"keep \" and \\n"}`, sanitizeStrings(`{"p":"keep \" and \\n"}`))
}

func TestCloseTruncated(t *testing.T) {
	assert.Equal(t, `{"a":[{"b":"c"}]}`, closeTruncated(`{"a":[{"b":"c`))
	assert.Equal(t, `{"a":"}"}`, closeTruncated(`{"a":"}"}`))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel...", Truncate("hello world", 6))
	assert.Equal(t, "日本", Truncate("日本語", 2))
	assert.Equal(t, "a b c", OneLine(" a\n b\t\tc "))
}
