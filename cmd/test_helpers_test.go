package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/TaskDivider/internal/app"
	"github.com/josephgoksu/TaskDivider/internal/config"
	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// fakeGenerator returns two subtopics for a new map and one "Step" child
// for every expansion.
type fakeGenerator struct {
	err   error
	calls int
}

func (g *fakeGenerator) GenerateFragment(_ context.Context, topic, nodeID string, _ []string) (*mindmap.FlatFragment, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if nodeID == "" {
		return &mindmap.FlatFragment{Topic: topic, Subtopics: []mindmap.FlatSubtopic{
			{ID: "basics", Name: "Basics", Details: "Posture and tuning"},
			{ID: "songs", Name: "Songs", Details: "First songs"},
		}}, nil
	}
	return &mindmap.FlatFragment{Topic: topic, Subtopics: []mindmap.FlatSubtopic{
		{ID: nodeID + "-Step", ParentID: &nodeID, Name: "Step"},
	}}, nil
}

// fakeEnricher answers detail and role requests and counts them.
type fakeEnricher struct {
	detailCalls int
	roleCalls   int
}

func (e *fakeEnricher) GenerateDetail(_ context.Context, topic, _ string) (string, []string, error) {
	e.detailCalls++
	return "How to approach " + topic, []string{"First check", "Second check"}, nil
}

func (e *fakeEnricher) GenerateRoles(context.Context, string, []string) ([]mindmap.RoleAssignment, error) {
	e.roleCalls++
	return []mindmap.RoleAssignment{{Role: "Learner", Responsibility: "Practice daily", Reason: "Muscle memory"}}, nil
}

// setupCLI swaps in a memory filesystem, fake collaborators and a private
// config directory for one test.
func setupCLI(t *testing.T) (*fakeGenerator, *fakeEnricher) {
	t.Helper()

	oldFS, oldCtx, oldClip, oldDir := appFS, newAppContext, writeClipboard, config.GetGlobalConfigDir
	home := t.TempDir()
	t.Setenv("HOME", home)
	config.GetGlobalConfigDir = func() (string, error) { return filepath.Join(home, ".taskdivider"), nil }

	gen, enr := &fakeGenerator{}, &fakeEnricher{}
	appFS = afero.NewMemMapFs()
	newAppContext = func(_ context.Context, logger *slog.Logger) (*app.Context, error) {
		return &app.Context{
			Generator: gen,
			Detail:    enr,
			Roles:     enr,
			Options:   config.DefaultMindmapOptions(),
			Logger:    logger,
		}, nil
	}
	writeClipboard = func(string) error { return nil }
	viper.Reset()

	t.Cleanup(func() {
		appFS, newAppContext, writeClipboard, config.GetGlobalConfigDir = oldFS, oldCtx, oldClip, oldDir
		viper.Reset()
		resetFlags(rootCmd)
	})
	return gen, enr
}

// runCLI executes the root command and returns what it wrote to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// mustRun is runCLI for steps that are expected to succeed.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	require.NoError(t, err, "taskdivider %v", args)
	return out
}

// resetFlags restores every flag to its default so state does not leak
// between executions of the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
	editStatus = statusFlag{}
}

// readTree loads the document at path from the test filesystem.
func readTree(t *testing.T, path string) *mindmap.Tree {
	t.Helper()
	doc, err := loadDocument(path)
	require.NoError(t, err)
	tree, err := doc.Tree(mindmap.DefaultPolicy())
	require.NoError(t, err)
	return tree
}

const guitarDoc = "Learn_Guitar_mind_map.json"

// generateGuitar creates the Learn Guitar document used by most tests.
func generateGuitar(t *testing.T) {
	t.Helper()
	mustRun(t, "generate", "Learn", "Guitar")
}
