// Package app provides the application layer that orchestrates mindmap
// operations. CLI and MCP handlers are thin adapters over Session.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"

	"github.com/josephgoksu/TaskDivider/internal/config"
	"github.com/josephgoksu/TaskDivider/internal/enrich"
	"github.com/josephgoksu/TaskDivider/internal/generation"
	"github.com/josephgoksu/TaskDivider/internal/llm"
	"github.com/josephgoksu/TaskDivider/internal/mindmap"
	"github.com/josephgoksu/TaskDivider/internal/search"
	"github.com/josephgoksu/TaskDivider/prompts"
)

// FragmentGenerator produces the flat subtopic list for a topic. nodeID is
// empty for an initial generation; ancestors lists names from the root down
// to the expanded node.
type FragmentGenerator interface {
	GenerateFragment(ctx context.Context, topic, nodeID string, ancestors []string) (*mindmap.FlatFragment, error)
}

// Context holds the collaborators and options shared by sessions. It is the
// explicit replacement for process-wide model settings: everything a session
// needs is passed in here.
type Context struct {
	Generator FragmentGenerator
	Detail    enrich.DetailFetcher
	Roles     enrich.RoleGenerator
	// Links is nil when link search is disabled.
	Links   enrich.LinkFinder
	Options config.MindmapOptions
	Logger  *slog.Logger

	closers []func() error
}

// Settings is the loaded configuration a Context is built from.
type Settings struct {
	LLM        llm.Config
	Fallback   *llm.Config
	Mindmap    config.MindmapOptions
	Search     config.SearchConfig
	PromptsDir string
}

// LoadSettings reads all settings from Viper.
func LoadSettings() (Settings, error) {
	var st Settings
	var err error
	if st.LLM, err = config.LoadLLMConfig(); err != nil {
		return st, err
	}
	if st.Fallback, err = config.LoadFallbackLLMConfig(); err != nil {
		return st, err
	}
	if st.Mindmap, err = config.LoadMindmapOptions(); err != nil {
		return st, err
	}
	if st.Search, err = config.LoadSearchConfig(); err != nil {
		return st, err
	}
	st.PromptsDir = config.PromptsDir()
	return st, nil
}

// NewContext loads settings and builds a Context from them.
func NewContext(ctx context.Context, logger *slog.Logger) (*Context, error) {
	st, err := LoadSettings()
	if err != nil {
		return nil, err
	}
	return NewContextWithConfig(ctx, st, logger)
}

// NewContextWithConfig creates the chat model(s), generator and searcher
// described by st. Call Close when done.
func NewContextWithConfig(ctx context.Context, st Settings, logger *slog.Logger) (*Context, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Context{Options: st.Mindmap, Logger: logger}

	primary, err := llm.NewCloseableChatModel(ctx, st.LLM)
	if err != nil {
		return nil, fmt.Errorf("create %s chat model: %w", st.LLM.Provider, err)
	}
	c.closers = append(c.closers, primary.Close)

	var secondary model.BaseChatModel
	if st.Fallback != nil {
		fb, err := llm.NewCloseableChatModel(ctx, *st.Fallback)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("create fallback %s chat model: %w", st.Fallback.Provider, err)
		}
		c.closers = append(c.closers, fb.Close)
		secondary = fb
	}

	gen := generation.New(
		llm.WithFallback(primary, secondary, logger),
		prompts.NewLoader(st.PromptsDir),
		generation.Config{MaxRetries: st.Mindmap.MaxRetries, RetryDelay: generation.DefaultRetryDelay, ModelID: st.LLM.Model},
		logger,
	)
	c.Generator, c.Detail, c.Roles = gen, gen, gen

	if st.Search.Provider == config.SearchGoogle {
		g, err := search.NewGoogle(search.GoogleConfig{
			APIKey:      st.Search.APIKey,
			CX:          st.Search.CX,
			Limit:       st.Search.Limit,
			QuerySuffix: st.Search.QuerySuffix,
		}, logger)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		if st.Search.RefineQuery {
			c.Links = &search.Refined{Searcher: g, Generator: gen, Logger: logger}
		} else {
			c.Links = search.Direct{Searcher: g}
		}
	}

	logger.Debug("app context ready", "provider", st.LLM.Provider, "model", st.LLM.Model,
		"fallback", st.Fallback != nil, "search", st.Search.Provider, "policy", st.Mindmap.Policy)
	return c, nil
}

// Close releases the chat model clients.
func (c *Context) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
