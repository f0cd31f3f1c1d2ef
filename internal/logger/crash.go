// Package logger builds the process slog logger and records panics to crash
// log files.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// CrashLogDir is the directory for crash logs relative to the base path.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is the maximum number of crash logs to keep.
	MaxCrashLogs = 10
)

// CrashContext stores context for crash logging.
type CrashContext struct {
	mu         sync.RWMutex
	lastTopic  string
	lastPrompt string
	document   string
	command    string
	version    string
	basePath   string
}

var globalContext = &CrashContext{}

// SetBasePath sets the directory crash_logs is created in (typically ~/.taskdivider).
func SetBasePath(path string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.basePath = path
}

// SetVersion sets the application version for crash logs.
func SetVersion(version string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.version = version
}

// SetCommand sets the current command being executed.
func SetCommand(cmd string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.command = cmd
}

// SetLastTopic records the topic or node being generated.
func SetLastTopic(topic string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.lastTopic = truncateForLog(strings.TrimSpace(topic), 500)
}

// SetDocument records the mindmap document the command works on.
func SetDocument(path string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.document = path
}

// SetLastPrompt records the last rendered LLM prompt.
func SetLastPrompt(prompt string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.lastPrompt = truncateForLog(prompt, 2000)
}

func truncateForLog(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	return value[:maxLen] + "... [truncated]"
}

// CrashLog is one crash log file.
type CrashLog struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Command    string    `json:"command"`
	PanicValue string    `json:"panic_value"`
	StackTrace string    `json:"stack_trace"`
	LastTopic  string    `json:"last_topic,omitempty"`
	LastPrompt string    `json:"last_prompt,omitempty"`
	Document   string    `json:"document,omitempty"`
	GoVersion  string    `json:"go_version"`
	OS         string    `json:"os"`
	Arch       string    `json:"arch"`
}

// HandlePanic is a deferred function that recovers from panics and logs them.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	if r := recover(); r != nil {
		path, err := RecordPanic(r)
		reportCrash(os.Stderr, r, path, err)
		os.Exit(1)
	}
}

// RecordPanic writes a crash log for panicValue and returns its path.
func RecordPanic(panicValue any) (string, error) {
	log := createCrashLog(panicValue)
	if err := writeCrashLog(log); err != nil {
		return "", err
	}
	return getCrashLogPath(log.Timestamp), nil
}

func reportCrash(w io.Writer, r any, path string, err error) {
	if err != nil {
		fmt.Fprintf(w, "\n[CRASH] Failed to write crash log: %v\n", err)
		fmt.Fprintf(w, "[CRASH] Panic: %v\n%s\n", r, debug.Stack())
		return
	}
	fmt.Fprintf(w, "\nTaskDivider encountered an unexpected error.\n\n")
	fmt.Fprintf(w, "A crash log has been saved to:\n  %s\n\n", path)
}

func createCrashLog(panicValue any) CrashLog {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	return CrashLog{
		Timestamp:  time.Now(),
		Version:    globalContext.version,
		Command:    globalContext.command,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(debug.Stack()),
		LastTopic:  globalContext.lastTopic,
		LastPrompt: globalContext.lastPrompt,
		Document:   globalContext.document,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
}

func writeCrashLog(log CrashLog) error {
	dir := getCrashLogDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create crash log dir: %w", err)
	}

	content, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("encode crash log: %w", err)
	}
	if err := os.WriteFile(getCrashLogPath(log.Timestamp), content, 0644); err != nil {
		return fmt.Errorf("write crash log: %w", err)
	}

	if err := cleanOldCrashLogs(dir); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to clean old crash logs: %v\n", err)
	}
	return nil
}

func getCrashLogDir() string {
	globalContext.mu.RLock()
	basePath := globalContext.basePath
	globalContext.mu.RUnlock()

	if basePath == "" {
		basePath = ".taskdivider"
	}
	return filepath.Join(basePath, CrashLogDir)
}

func getCrashLogPath(t time.Time) string {
	filename := fmt.Sprintf("crash_%s.json", t.Format("20060102_150405.000"))
	return filepath.Join(getCrashLogDir(), filename)
}

func isCrashLog(name string) bool {
	return strings.HasPrefix(name, "crash_") && strings.HasSuffix(name, ".json")
}

// cleanOldCrashLogs keeps the MaxCrashLogs newest logs. Names sort by time.
func cleanOldCrashLogs(dir string) error {
	logs, err := listCrashLogs(dir)
	if err != nil || len(logs) <= MaxCrashLogs {
		return err
	}
	for _, path := range logs[:len(logs)-MaxCrashLogs] {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove old crash log %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func listCrashLogs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var logs []string
	for _, e := range entries {
		if !e.IsDir() && isCrashLog(e.Name()) {
			logs = append(logs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(logs)
	return logs, nil
}

// ListCrashLogs returns crash log paths, oldest first.
func ListCrashLogs() ([]string, error) {
	return listCrashLogs(getCrashLogDir())
}

// ReadCrashLog reads and decodes a crash log file.
func ReadCrashLog(path string) (*CrashLog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var log CrashLog
	if err := json.Unmarshal(content, &log); err != nil {
		return nil, fmt.Errorf("decode crash log %s: %w", path, err)
	}
	return &log, nil
}
