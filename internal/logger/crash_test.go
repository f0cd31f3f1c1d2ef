package logger

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCrashHandler_SetContext(t *testing.T) {
	globalContext = &CrashContext{}

	SetBasePath("/tmp/test-taskdivider")
	SetVersion("1.0.0-test")
	SetCommand("expand")
	SetLastTopic("  Learn Guitar ")
	SetLastPrompt("test prompt")
	SetDocument("Learn_Guitar_mind_map.json")

	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	if globalContext.basePath != "/tmp/test-taskdivider" {
		t.Errorf("Expected basePath '/tmp/test-taskdivider', got '%s'", globalContext.basePath)
	}
	if globalContext.version != "1.0.0-test" {
		t.Errorf("Expected version '1.0.0-test', got '%s'", globalContext.version)
	}
	if globalContext.command != "expand" {
		t.Errorf("Expected command 'expand', got '%s'", globalContext.command)
	}
	if globalContext.lastTopic != "Learn Guitar" {
		t.Errorf("Expected lastTopic 'Learn Guitar', got '%s'", globalContext.lastTopic)
	}
	if globalContext.lastPrompt != "test prompt" {
		t.Errorf("Expected lastPrompt 'test prompt', got '%s'", globalContext.lastPrompt)
	}
	if globalContext.document != "Learn_Guitar_mind_map.json" {
		t.Errorf("Expected document 'Learn_Guitar_mind_map.json', got '%s'", globalContext.document)
	}
}

func TestCrashHandler_SetLastPrompt_Truncation(t *testing.T) {
	globalContext = &CrashContext{}

	SetLastPrompt(strings.Repeat("a", 3000))

	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	if len(globalContext.lastPrompt) > 2100 {
		t.Errorf("Expected prompt to be truncated, got length %d", len(globalContext.lastPrompt))
	}
	if !strings.Contains(globalContext.lastPrompt, "[truncated]") {
		t.Error("Expected truncated prompt to contain '[truncated]'")
	}
}

func TestCrashHandler_RecordPanic(t *testing.T) {
	dir := t.TempDir()
	globalContext = &CrashContext{basePath: dir, version: "1.0.0", command: "generate", lastTopic: "Learn Guitar"}

	path, err := RecordPanic("boom")
	if err != nil {
		t.Fatalf("RecordPanic() error = %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, CrashLogDir) {
		t.Fatalf("unexpected crash log path %s", path)
	}

	log, err := ReadCrashLog(path)
	if err != nil {
		t.Fatalf("ReadCrashLog() error = %v", err)
	}
	if log.PanicValue != "boom" || log.Version != "1.0.0" || log.Command != "generate" || log.LastTopic != "Learn Guitar" {
		t.Errorf("unexpected crash log: %+v", log)
	}
	if log.StackTrace == "" || log.GoVersion == "" {
		t.Error("Expected stack trace and go version")
	}

	logs, err := ListCrashLogs()
	if err != nil {
		t.Fatalf("ListCrashLogs() error = %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("Expected 1 crash log, got %d", len(logs))
	}
}

func TestCrashHandler_CleanOldLogs(t *testing.T) {
	dir := t.TempDir()
	for i := range MaxCrashLogs + 3 {
		name := fmt.Sprintf("crash_20250101_0000%02d.000.json", i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := cleanOldCrashLogs(dir); err != nil {
		t.Fatalf("cleanOldCrashLogs() error = %v", err)
	}

	logs, _ := listCrashLogs(dir)
	if len(logs) != MaxCrashLogs {
		t.Fatalf("Expected %d logs, got %d", MaxCrashLogs, len(logs))
	}
	if filepath.Base(logs[0]) != "crash_20250101_000003.000.json" {
		t.Errorf("Expected oldest logs removed, first remaining is %s", filepath.Base(logs[0]))
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("Expected non crash files to be kept")
	}
}

func TestCrashHandler_GetCrashLogPath(t *testing.T) {
	globalContext = &CrashContext{basePath: "/tmp/base"}
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	got := getCrashLogPath(ts)
	want := filepath.Join("/tmp/base", CrashLogDir, "crash_20250304_050607.000.json")
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestCrashHandler_DefaultBasePath(t *testing.T) {
	globalContext = &CrashContext{}
	if got := getCrashLogDir(); got != filepath.Join(".taskdivider", CrashLogDir) {
		t.Errorf("Expected default crash dir, got %s", got)
	}
}

func TestCrashHandler_ReportCrash(t *testing.T) {
	var buf bytes.Buffer
	reportCrash(&buf, "boom", "/tmp/crash.json", nil)
	if !strings.Contains(buf.String(), "/tmp/crash.json") {
		t.Errorf("Expected crash path in report, got %q", buf.String())
	}

	buf.Reset()
	reportCrash(&buf, "boom", "", errors.New("disk full"))
	if !strings.Contains(buf.String(), "disk full") {
		t.Errorf("Expected write error in report, got %q", buf.String())
	}
}
