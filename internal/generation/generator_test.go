package generation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// scriptedModel replies with the queued responses in order. The last entry
// repeats once the queue is drained.
type scriptedModel struct {
	mu      sync.Mutex
	replies []reply
	calls   [][]*schema.Message
}

type reply struct {
	content string
	err     error
}

func (m *scriptedModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, in)
	r := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return schema.AssistantMessage(r.content, nil), nil
}

func (m *scriptedModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func newGen(replies ...reply) (*Generator, *scriptedModel) {
	m := &scriptedModel{replies: replies}
	return New(m, nil, Config{MaxRetries: 2}, nil), m
}

const learnGuitar = `{"topic":"Learn Guitar","subtopics":[
 {"id":"basics","parentId":null,"name":"Basics","details":"Hold the guitar","links":[{"title":"Justin Guitar","type":"website","url":"https://www.justinguitar.com"}]},
 {"id":"chords","parentId":null,"name":"Chords","details":"Learn shapes","links":[]}
]}`

func TestGenerateFragment(t *testing.T) {
	g, m := newGen(reply{content: learnGuitar})

	frag, err := g.GenerateFragment(context.Background(), "Learn Guitar", "", nil)
	require.NoError(t, err)

	require.Len(t, frag.Subtopics, 2)
	assert.Equal(t, "Basics", frag.Subtopics[0].Name)
	assert.Nil(t, frag.Subtopics[0].ParentID)
	assert.Equal(t, mindmap.LinkWebsite, frag.Subtopics[0].Links[0].Type)
	require.Len(t, m.calls, 1)
	assert.Contains(t, m.calls[0][0].Content, "Learn Guitar")
}

func TestGenerateFragmentTrailingProse(t *testing.T) {
	g, _ := newGen(reply{content: learnGuitar + "\n\nLet me know if you want more detail!"})

	frag, err := g.GenerateFragment(context.Background(), "Learn Guitar", "", nil)
	require.NoError(t, err)
	assert.Len(t, frag.Subtopics, 2)
}

func TestGenerateFragmentExpansionAssignsIDs(t *testing.T) {
	g, m := newGen(reply{content: `{"topic":"Basics","subtopics":[{"parentId":"Learn-Guitar-Basics","name":"Open Chords","details":"","links":[]}]}`})

	frag, err := g.GenerateFragment(context.Background(), "Basics", "Learn-Guitar-Basics", []string{"Learn Guitar", "Basics"})
	require.NoError(t, err)

	require.Len(t, frag.Subtopics, 1)
	assert.Equal(t, "Learn-Guitar-Basics-Open-Chords", frag.Subtopics[0].ID)
	assert.Contains(t, m.calls[0][0].Content, "Learn Guitar > Basics")
}

func TestGenerateFragmentNoJSON(t *testing.T) {
	g, m := newGen(reply{content: "I'm sorry, I can't help with that."})

	_, err := g.GenerateFragment(context.Background(), "Learn Guitar", "", nil)

	var genErr *mindmap.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "Learn Guitar", genErr.Topic)
	assert.ErrorIs(t, err, mindmap.ErrGeneration)
	assert.Len(t, m.calls, 3, "one attempt plus two retries")
}

func TestGenerateFragmentFeedsBackValidationErrors(t *testing.T) {
	g, m := newGen(
		reply{content: `{"topic":"T","subtopics":[]}`},
		reply{content: learnGuitar},
	)

	frag, err := g.GenerateFragment(context.Background(), "Learn Guitar", "", nil)
	require.NoError(t, err)
	assert.Len(t, frag.Subtopics, 2)

	require.Len(t, m.calls, 2)
	second := m.calls[1]
	require.Len(t, second, 3)
	assert.Equal(t, schema.Assistant, second[1].Role)
	assert.Equal(t, `{"topic":"T","subtopics":[]}`, second[1].Content)
	assert.Contains(t, second[2].Content, "SCHEMA VALIDATION ERRORS")
	assert.Contains(t, second[2].Content, "Subtopics")
}

func TestGenerateRetriesTransientErrors(t *testing.T) {
	g, m := newGen(
		reply{err: errors.New("HTTP 429 Too Many Requests")},
		reply{content: learnGuitar},
	)

	_, err := g.GenerateFragment(context.Background(), "Learn Guitar", "", nil)
	require.NoError(t, err)
	assert.Len(t, m.calls, 2)
}

func TestGenerateDoesNotRetryPermanentErrors(t *testing.T) {
	g, m := newGen(reply{err: errors.New("invalid api key")})

	_, err := g.GenerateFragment(context.Background(), "Learn Guitar", "", nil)
	require.Error(t, err)
	assert.Len(t, m.calls, 1)
}

func TestGenerateDetail(t *testing.T) {
	g, _ := newGen(reply{content: "```json\n{\"taskDetail\":\"  Practice daily \",\"evaluationChecklist\":[\" Can play G \",\"Can switch chords\"]}\n```"})

	detail, checklist, err := g.GenerateDetail(context.Background(), "Basics", "Learn-Guitar-Basics")
	require.NoError(t, err)
	assert.Equal(t, "Practice daily", detail)
	assert.Equal(t, []string{"Can play G", "Can switch chords"}, checklist)
}

func TestGenerateDetailRejectsEmptyChecklist(t *testing.T) {
	g, _ := newGen(reply{content: `{"taskDetail":"x","evaluationChecklist":[]}`})

	_, _, err := g.GenerateDetail(context.Background(), "Basics", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EvaluationChecklist")
}

func TestGenerateRoles(t *testing.T) {
	g, m := newGen(reply{content: `{"roles":[{"role":"Instructor","responsibility":"Review technique weekly","reason":"Catches bad habits early"}]}`})

	roles, err := g.GenerateRoles(context.Background(), "Practice daily", []string{"Can play G", "Can play C"})
	require.NoError(t, err)
	assert.Equal(t, []mindmap.RoleAssignment{{Role: "Instructor", Responsibility: "Review technique weekly", Reason: "Catches bad habits early"}}, roles)

	prompt := m.calls[0][0].Content
	assert.Contains(t, prompt, "Practice daily")
	assert.Contains(t, prompt, "- Can play C")
}

func TestGenerateSearchQuery(t *testing.T) {
	g, _ := newGen(reply{content: `{"query":"\"open chords beginner tutorial\""}`})

	q, err := g.GenerateSearchQuery(context.Background(), "Open Chords", "x")
	require.NoError(t, err)
	assert.Equal(t, "open chords beginner tutorial", q)
}

func TestGenerateWithoutModel(t *testing.T) {
	g := New(nil, nil, Config{}, nil)
	_, err := g.GenerateSearchQuery(context.Background(), "x", "y")
	assert.Error(t, err)
}

func TestFormatErrorFeedbackTruncates(t *testing.T) {
	longOutput := strings.Repeat("a", 600)
	feedback := formatErrorFeedback("Test Error", "test message", longOutput)

	assert.Contains(t, feedback, "[truncated]")
	assert.NotContains(t, feedback, longOutput)
	assert.Contains(t, feedback, "test message")
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		errMsg   string
		expected bool
	}{
		{"", false},
		{"rate limit exceeded", true},
		{"HTTP 429 Too Many Requests", true},
		{"API quota exceeded for today", true},
		{"dial tcp: connection reset by peer", true},
		{"503 Service Unavailable", true},
		{"validation failed: Name is required", false},
		{"something went wrong", false},
	}

	for _, tt := range tests {
		t.Run(tt.errMsg, func(t *testing.T) {
			var err error
			if tt.errMsg != "" {
				err = errors.New(tt.errMsg)
			}
			assert.Equal(t, tt.expected, isTransientError(err))
		})
	}
}
