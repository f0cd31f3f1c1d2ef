package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/TaskDivider/internal/config"
	"github.com/josephgoksu/TaskDivider/internal/enrich"
	"github.com/josephgoksu/TaskDivider/internal/mindmap"
	"github.com/josephgoksu/TaskDivider/internal/utils"
)

// MockGenerator implements FragmentGenerator for testing.
type MockGenerator struct {
	calls            atomic.Int32
	GenerateFragFunc func(ctx context.Context, topic, nodeID string, ancestors []string) (*mindmap.FlatFragment, error)
}

func (m *MockGenerator) GenerateFragment(ctx context.Context, topic, nodeID string, ancestors []string) (*mindmap.FlatFragment, error) {
	m.calls.Add(1)
	if m.GenerateFragFunc != nil {
		return m.GenerateFragFunc(ctx, topic, nodeID, ancestors)
	}
	return nil, errors.New("not implemented")
}

// MockEnricher implements the detail and role collaborators.
type MockEnricher struct {
	detailCalls atomic.Int32
	roleCalls   atomic.Int32
}

func (m *MockEnricher) GenerateDetail(_ context.Context, topic, _ string) (string, []string, error) {
	m.detailCalls.Add(1)
	return "Practice " + topic, []string{"Can play it"}, nil
}

func (m *MockEnricher) GenerateRoles(context.Context, string, []string) ([]mindmap.RoleAssignment, error) {
	m.roleCalls.Add(1)
	return []mindmap.RoleAssignment{{Role: "Learner", Responsibility: "Practice", Reason: "Progress"}}, nil
}

func str(s string) *string { return &s }

func sub(id string, parent *string, name string) mindmap.FlatSubtopic {
	return mindmap.FlatSubtopic{ID: id, ParentID: parent, Name: name, Details: name + " details", Links: []mindmap.Link{}}
}

// guitarGenerator answers like a model would for the Learn Guitar scenario.
func guitarGenerator() *MockGenerator {
	return &MockGenerator{GenerateFragFunc: func(_ context.Context, topic, nodeID string, _ []string) (*mindmap.FlatFragment, error) {
		switch nodeID {
		case "":
			return &mindmap.FlatFragment{Topic: topic, Subtopics: []mindmap.FlatSubtopic{
				sub("basics", nil, "Basics"),
				sub("chords", nil, "Chords"),
			}}, nil
		case "Learn-Guitar-Basics":
			return &mindmap.FlatFragment{Topic: topic, Subtopics: []mindmap.FlatSubtopic{
				sub("Learn-Guitar-Basics-Open-Chords", str("Learn-Guitar-Basics"), "Open Chords"),
			}}, nil
		default:
			return &mindmap.FlatFragment{Topic: topic, Subtopics: []mindmap.FlatSubtopic{
				sub(nodeID+"-Step", str(nodeID), "Step"),
			}}, nil
		}
	}}
}

func newSession(gen FragmentGenerator, enr *MockEnricher) *Session {
	c := &Context{
		Generator: gen,
		Options:   config.DefaultMindmapOptions(),
	}
	if enr != nil {
		c.Detail, c.Roles = enr, enr
	}
	return NewSession(c)
}

func childNames(n *mindmap.Node) []string {
	var out []string
	for _, c := range n.Subtopics {
		out = append(out, c.Name)
	}
	return out
}

func TestSessionLearnGuitarScenario(t *testing.T) {
	s := newSession(guitarGenerator(), nil)
	ctx := context.Background()

	require.NoError(t, s.Generate(ctx, "Learn Guitar"))
	root, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Learn Guitar", root.Name)
	assert.Equal(t, []string{"Basics", "Chords"}, childNames(root))
	for _, c := range root.Subtopics {
		assert.Empty(t, c.Subtopics)
	}

	require.NoError(t, s.Expand(ctx, "Learn-Guitar-Basics"))
	basics, err := s.Tree().Subtree("Learn-Guitar-Basics")
	require.NoError(t, err)
	require.Len(t, basics.Subtopics, 1)
	assert.Equal(t, "Learn-Guitar-Basics-Open-Chords", basics.Subtopics[0].ID)
	assert.Equal(t, "Open Chords details", basics.Subtopics[0].Details)
}

func TestSessionGenerateMalformedOutputYieldsErrorNode(t *testing.T) {
	gen := &MockGenerator{GenerateFragFunc: func(context.Context, string, string, []string) (*mindmap.FlatFragment, error) {
		_, err := utils.ExtractAndParseJSON[mindmap.FlatFragment]("Sorry, I cannot do that.")
		return nil, err
	}}
	s := newSession(gen, nil)

	err := s.Generate(context.Background(), "Learn Guitar")
	require.Error(t, err)
	assert.ErrorIs(t, err, mindmap.ErrGeneration)

	root, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, root.Subtopics, 1)
	assert.Equal(t, "Error", root.Subtopics[0].Name)
}

func TestSessionExpandFailureLeavesTreeUnchanged(t *testing.T) {
	gen := guitarGenerator()
	s := newSession(gen, nil)
	require.NoError(t, s.Generate(context.Background(), "Learn Guitar"))
	before := s.Tree()

	gen.GenerateFragFunc = func(context.Context, string, string, []string) (*mindmap.FlatFragment, error) {
		return nil, errors.New("connection reset")
	}
	err := s.Expand(context.Background(), "Learn-Guitar-Chords")

	var genErr *mindmap.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "Learn-Guitar-Chords", genErr.NodeID)
	assert.Same(t, before, s.Tree())
}

func TestSessionExpandPassesAncestorPath(t *testing.T) {
	var got []string
	gen := guitarGenerator()
	inner := gen.GenerateFragFunc
	gen.GenerateFragFunc = func(ctx context.Context, topic, nodeID string, ancestors []string) (*mindmap.FlatFragment, error) {
		got = ancestors
		return inner(ctx, topic, nodeID, ancestors)
	}
	s := newSession(gen, nil)
	require.NoError(t, s.Generate(context.Background(), "Learn Guitar"))
	require.NoError(t, s.Expand(context.Background(), "Learn-Guitar-Basics"))

	assert.Equal(t, []string{"Learn Guitar", "Basics"}, got)
}

func TestSessionExpandDiscardsResultForDeletedNode(t *testing.T) {
	gen := guitarGenerator()
	s := newSession(gen, nil)
	require.NoError(t, s.Generate(context.Background(), "Learn Guitar"))

	inner := gen.GenerateFragFunc
	gen.GenerateFragFunc = func(ctx context.Context, topic, nodeID string, ancestors []string) (*mindmap.FlatFragment, error) {
		_, err := s.DeleteNode(nodeID)
		require.NoError(t, err)
		return inner(ctx, topic, nodeID, ancestors)
	}

	require.NoError(t, s.Expand(context.Background(), "Learn-Guitar-Basics"))
	assert.False(t, s.Tree().Contains("Learn-Guitar-Basics"))
	assert.False(t, s.Tree().Contains("Learn-Guitar-Basics-Open-Chords"))
}

func TestSessionExpandSplicesRestatedTarget(t *testing.T) {
	gen := guitarGenerator()
	s := newSession(gen, nil)
	require.NoError(t, s.Generate(context.Background(), "Learn Guitar"))

	gen.GenerateFragFunc = func(_ context.Context, topic, nodeID string, _ []string) (*mindmap.FlatFragment, error) {
		return &mindmap.FlatFragment{Topic: topic, Subtopics: []mindmap.FlatSubtopic{
			sub(nodeID, nil, topic),
			sub("x", str(nodeID), "Strumming"),
		}}, nil
	}
	require.NoError(t, s.Expand(context.Background(), "Learn-Guitar-Chords"))

	chords, err := s.Tree().Subtree("Learn-Guitar-Chords")
	require.NoError(t, err)
	assert.Equal(t, []string{"Strumming"}, childNames(chords))
}

func TestSessionConcurrentExpansionsKeepBothResults(t *testing.T) {
	gen := guitarGenerator()
	s := newSession(gen, nil)
	require.NoError(t, s.Generate(context.Background(), "Learn Guitar"))

	var wg sync.WaitGroup
	for _, id := range []string{"Learn-Guitar-Basics", "Learn-Guitar-Chords"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Expand(context.Background(), id))
		}()
	}
	wg.Wait()

	tree := s.Tree()
	assert.True(t, tree.Contains("Learn-Guitar-Basics-Open-Chords"))
	assert.True(t, tree.Contains("Learn-Guitar-Chords-Step"))
	assert.Equal(t, 5, tree.Len())
}

func TestSessionExpandAll(t *testing.T) {
	s := newSession(guitarGenerator(), nil)
	require.NoError(t, s.Generate(context.Background(), "Learn Guitar"))

	require.NoError(t, s.ExpandAll(context.Background(), 2))

	tree := s.Tree()
	assert.True(t, tree.Contains("Learn-Guitar-Basics-Open-Chords-Step"))
	assert.True(t, tree.Contains("Learn-Guitar-Chords-Step-Step"))
	assert.Equal(t, 7, tree.Len())
}

func TestSessionExpandTimeout(t *testing.T) {
	gen := &MockGenerator{GenerateFragFunc: func(ctx context.Context, _, _ string, _ []string) (*mindmap.FlatFragment, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	s := newSession(gen, nil)
	s.expander.timeout = 20 * time.Millisecond

	err := s.Generate(context.Background(), "Learn Guitar")
	assert.ErrorIs(t, err, mindmap.ErrGeneration)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSessionEnrichment(t *testing.T) {
	enr := &MockEnricher{}
	s := newSession(guitarGenerator(), enr)
	ctx := context.Background()
	require.NoError(t, s.Generate(ctx, "Learn Guitar"))

	err := s.GenerateRolesForNode(ctx, "Learn-Guitar-Basics")
	assert.ErrorIs(t, err, mindmap.ErrPrecondition)
	assert.Zero(t, enr.roleCalls.Load())

	require.NoError(t, s.SelectNode(ctx, "Learn-Guitar-Basics"))
	require.NoError(t, s.SelectNode(ctx, "Learn-Guitar-Basics"))
	assert.Equal(t, int32(1), enr.detailCalls.Load())

	require.NoError(t, s.GenerateRolesForNode(ctx, "Learn-Guitar-Basics"))
	st, err := s.NodeState("Learn-Guitar-Basics")
	require.NoError(t, err)
	assert.Equal(t, enrich.State{Detail: enrich.Fetched, Links: enrich.NoLinks, Roles: enrich.HasRoles}, st)

	n, err := s.Node("Learn-Guitar-Basics")
	require.NoError(t, err)
	assert.Equal(t, "Practice Basics", *n.TaskDetail)
}

// gatedEnricher blocks detail requests until release is closed.
type gatedEnricher struct {
	MockEnricher
	started chan struct{}
	release chan struct{}
}

func (g *gatedEnricher) GenerateDetail(ctx context.Context, topic, nodeID string) (string, []string, error) {
	close(g.started)
	<-g.release
	return g.MockEnricher.GenerateDetail(ctx, topic, nodeID)
}

func TestSessionEnrichmentDroppedAfterRegenerate(t *testing.T) {
	enr := &gatedEnricher{started: make(chan struct{}), release: make(chan struct{})}
	s := NewSession(&Context{Generator: guitarGenerator(), Detail: enr, Roles: enr, Options: config.DefaultMindmapOptions()})
	ctx := context.Background()
	require.NoError(t, s.Generate(ctx, "Learn Guitar"))
	before := s.Epoch()

	selected := make(chan error, 1)
	go func() { selected <- s.SelectNode(ctx, "Learn-Guitar-Basics") }()
	<-enr.started

	require.NoError(t, s.Generate(ctx, "Learn Guitar"))
	assert.Greater(t, s.Epoch(), before)
	close(enr.release)
	require.NoError(t, <-selected)

	n, err := s.Node("Learn-Guitar-Basics")
	require.NoError(t, err)
	assert.Nil(t, n.TaskDetail)
	assert.Nil(t, n.EvaluationChecklist)
}

func TestSessionGenerateDiscardsInterimEdits(t *testing.T) {
	started, release := make(chan struct{}), make(chan struct{})
	inner := guitarGenerator()
	gen := &MockGenerator{GenerateFragFunc: func(ctx context.Context, topic, nodeID string, anc []string) (*mindmap.FlatFragment, error) {
		close(started)
		<-release
		return inner.GenerateFragFunc(ctx, topic, nodeID, anc)
	}}
	s := newSession(gen, nil)

	generated := make(chan error, 1)
	go func() { generated <- s.Generate(context.Background(), "Learn Guitar") }()
	<-started

	interim := s.Tree()
	require.NotNil(t, interim)
	assert.Equal(t, 1, interim.Len())
	require.NoError(t, s.UpdateNodeFields(interim.RootID(), mindmap.Patch{TaskDetail: str("draft")}))
	epoch := s.Epoch()

	close(release)
	require.NoError(t, <-generated)

	assert.Equal(t, epoch+1, s.Epoch())
	root, err := s.Node(s.Tree().RootID())
	require.NoError(t, err)
	assert.Nil(t, root.TaskDetail)
	assert.Equal(t, 3, s.Tree().Len())

	// Writes tied to the interim epoch no longer land.
	err = s.UpdateAt(epoch, "Learn-Guitar-Basics", mindmap.Patch{TaskDetail: str("late")})
	assert.ErrorIs(t, err, mindmap.ErrNotFound)
}

func TestSessionEditsAndDelete(t *testing.T) {
	enr := &MockEnricher{}
	s := newSession(guitarGenerator(), enr)
	ctx := context.Background()
	require.NoError(t, s.Generate(ctx, "Learn Guitar"))

	done := mindmap.StatusDone
	require.NoError(t, s.UpdateNodeFields("Learn-Guitar-Chords", mindmap.Patch{Name: str("Chord Shapes"), Status: &done}))
	n, err := s.Node("Learn-Guitar-Chords")
	require.NoError(t, err)
	assert.Equal(t, "Chord Shapes", n.Name)
	assert.Equal(t, mindmap.StatusDone, n.Status)

	require.NoError(t, s.SelectNode(ctx, "Learn-Guitar-Chords"))
	require.NoError(t, s.EditChecklist("Learn-Guitar-Chords", mindmap.ChecklistOp{Kind: mindmap.ChecklistAdd, Text: "Can switch chords"}))
	n, _ = s.Node("Learn-Guitar-Chords")
	assert.Equal(t, []string{"Can play it", "Can switch chords"}, n.EvaluationChecklist)

	removed, err := s.DeleteNode("Learn-Guitar-Chords")
	require.NoError(t, err)
	assert.Equal(t, []string{"Learn-Guitar-Chords"}, removed)

	_, err = s.DeleteNode(s.Tree().RootID())
	assert.ErrorIs(t, err, mindmap.ErrRootImmutable)
}

func TestSessionWithoutTree(t *testing.T) {
	s := newSession(guitarGenerator(), nil)
	_, err := s.Snapshot()
	assert.ErrorIs(t, err, ErrNoMindmap)
	assert.ErrorIs(t, s.Expand(context.Background(), "x"), ErrNoMindmap)
	assert.Zero(t, s.Version())
}

func TestSessionExportImportRoundTrip(t *testing.T) {
	s := newSession(guitarGenerator(), &MockEnricher{})
	ctx := context.Background()
	require.NoError(t, s.Generate(ctx, "Learn Guitar"))
	require.NoError(t, s.Expand(ctx, "Learn-Guitar-Basics"))
	require.NoError(t, s.SelectNode(ctx, "Learn-Guitar-Basics"))

	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf, "json"))

	other := newSession(guitarGenerator(), nil)
	require.NoError(t, other.Import(&buf))

	want, _ := s.Snapshot()
	got, _ := other.Snapshot()
	assert.Equal(t, want, got)

	var md bytes.Buffer
	require.NoError(t, s.Export(&md, "md"))
	assert.True(t, strings.HasPrefix(md.String(), "# Learn Guitar"))
	assert.Contains(t, md.String(), "Can play it")

	assert.Error(t, s.Export(&md, "pdf"))
}

func TestSessionReset(t *testing.T) {
	s := newSession(guitarGenerator(), nil)
	require.NoError(t, s.Generate(context.Background(), "Learn Guitar"))
	s.Reset()
	assert.Nil(t, s.Tree())
}

func TestNormalizeFormat(t *testing.T) {
	tests := map[string]string{
		"":         FormatJSON,
		"JSON":     FormatJSON,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		"yml":      FormatYAML,
		"pdf":      "pdf",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeFormat(in), in)
	}
	assert.Equal(t, "md", FormatExtension("markdown"))
	assert.Equal(t, "json", FormatExtension(""))
}
