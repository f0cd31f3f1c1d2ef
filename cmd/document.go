package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/TaskDivider/internal/app"
	"github.com/josephgoksu/TaskDivider/internal/config"
	"github.com/josephgoksu/TaskDivider/internal/logger"
	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// appFS is where mindmap documents are read and written. Tests swap in a
// memory filesystem.
var appFS = afero.NewOsFs()

// newAppContext builds the LLM and search collaborators. Tests replace it
// with fakes.
var newAppContext = func(ctx context.Context, logger *slog.Logger) (*app.Context, error) {
	return app.NewContext(ctx, logger)
}

// ErrNoDocument is returned when no document path was given and none can be found.
var ErrNoDocument = errors.New("no mindmap document found; run 'taskdivider generate <topic>' or pass --file")

// documentPath resolves the document a command operates on: --file, then the
// topic-derived name, then the only *_mind_map.json in the working directory.
func documentPath(topic string) (string, error) {
	if docFile != "" {
		return docFile, nil
	}
	if strings.TrimSpace(topic) != "" {
		return config.DocumentPath(topic), nil
	}
	matches, err := afero.Glob(appFS, "*_mind_map.json")
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", ErrNoDocument
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("several mindmap documents found (%s); pass --file", strings.Join(matches, ", "))
	}
}

func loadDocument(path string) (*mindmap.Document, error) {
	f, err := appFS.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoDocument, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	doc, err := mindmap.ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return doc, nil
}

// writeFile replaces path with data via a temporary file.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(appFS, tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := appFS.Rename(tmp, path); err != nil {
		_ = appFS.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// workspace is one command's session bound to a document file.
type workspace struct {
	app     *app.Context
	session *app.Session
	path    string
}

// openWorkspace prepares a session for path. withLLM builds the generation
// and search collaborators; editing commands run without them. When load is
// set the document at path is read into the session.
func openWorkspace(cmd *cobra.Command, path string, withLLM, load bool) (*workspace, error) {
	log := slog.Default()
	var c *app.Context
	if withLLM {
		var err error
		if c, err = newAppContext(cmd.Context(), log); err != nil {
			return nil, err
		}
	} else {
		opts, err := config.LoadMindmapOptions()
		if err != nil {
			return nil, err
		}
		c = &app.Context{Options: opts, Logger: log}
	}

	logger.SetDocument(path)
	w := &workspace{app: c, session: app.NewSession(c), path: path}
	if load {
		doc, err := loadDocument(path)
		if err == nil {
			err = w.session.Load(doc)
		}
		if err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return w, nil
}

// openExisting resolves the document path and loads it.
func openExisting(cmd *cobra.Command, withLLM bool) (*workspace, error) {
	path, err := documentPath("")
	if err != nil {
		return nil, err
	}
	return openWorkspace(cmd, path, withLLM, true)
}

// Save writes the session's tree back to the document file.
func (w *workspace) Save() error {
	var buf bytes.Buffer
	if err := w.session.Export(&buf, app.FormatJSON); err != nil {
		return err
	}
	if err := writeFile(w.path, buf.Bytes()); err != nil {
		return err
	}
	slog.Debug("document saved", "path", w.path, "version", w.session.Version())
	return nil
}

func (w *workspace) Close() error {
	return w.app.Close()
}

// resolve maps a node argument onto an id in the loaded tree.
func (w *workspace) resolve(ref string) (string, error) {
	return w.session.Resolve(ref)
}
