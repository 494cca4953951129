package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/actionsum/ctvtcntr/internal/ledger"
	"github.com/actionsum/ctvtcntr/internal/session"
	"github.com/actionsum/ctvtcntr/internal/tablefile"
)

// executeCommand runs a fresh command tree with args and captures combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommandContext(t, context.Background(), args...)
}

func executeCommandContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	_, err := root.ExecuteContextC(ctx)
	return buf.String(), err
}

// seededDataDir writes a CSV table with two records for today.
func seededDataDir(t *testing.T) (string, ledger.Date) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()
	today := ledger.DateOf(time.Now())
	records := []ledger.Record{
		{Date: today, Identity: "Kitty", Duration: 90 * time.Second},
		{Date: today, Identity: "NeoVim", Duration: 30 * time.Second},
	}
	if err := tablefile.WriteFile(filepath.Join(dir, "usage.csv"), records, false); err != nil {
		t.Fatal(err)
	}
	return dir, today
}

func TestVersion(t *testing.T) {
	out, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.Contains(out, "ctvtcntr version "+version) {
		t.Errorf("version output = %q", out)
	}
}

func TestRules(t *testing.T) {
	out, err := executeCommand(t, "rules")
	if err != nil {
		t.Fatalf("rules error: %v", err)
	}
	if !strings.HasPrefix(out, "1. chat\n") || !strings.Contains(out, "7. title") {
		t.Errorf("rules output = %q", out)
	}

	out, _ = executeCommand(t, "rules", "nvim main.go", "com.mitchellh.ghostty")
	if strings.TrimSpace(out) != "NeoVim" {
		t.Errorf("rules <title> <class> = %q, want NeoVim", out)
	}
}

func TestRecords(t *testing.T) {
	dir, today := seededDataDir(t)

	out, err := executeCommand(t, "records", "--backend", "csv", "--data-dir", dir)
	if err != nil {
		t.Fatalf("records error: %v", err)
	}
	for _, want := range []string{today.String(), "Kitty", "00h:01m:30s", "NeoVim"} {
		if !strings.Contains(out, want) {
			t.Errorf("records output missing %q:\n%s", want, out)
		}
	}

	out, err = executeCommand(t, "records", "--json", "--backend", "csv", "--data-dir", dir)
	if err != nil {
		t.Fatalf("records --json error: %v", err)
	}
	if !strings.Contains(out, `"seconds": 90`) {
		t.Errorf("records --json output = %s", out)
	}
}

func TestUsage(t *testing.T) {
	dir, today := seededDataDir(t)

	out, err := executeCommand(t, "usage", "Kitty", "--backend", "csv", "--data-dir", dir)
	if err != nil {
		t.Fatalf("usage error: %v", err)
	}
	if want := "Kitty on " + today.String() + ": 00h:01m:30s"; !strings.Contains(out, want) {
		t.Errorf("usage output = %q, want %q", out, want)
	}

	out, _ = executeCommand(t, "usage", "Kitty", "--date", "1999-01-01", "--backend", "csv", "--data-dir", dir)
	if !strings.Contains(out, "No usage recorded") {
		t.Errorf("usage for an empty day = %q", out)
	}

	if _, err := executeCommand(t, "usage", "Kitty", "--date", "01/01/1999", "--data-dir", dir); err == nil {
		t.Error("usage accepted a malformed date")
	}
}

func TestReport(t *testing.T) {
	dir, _ := seededDataDir(t)

	out, err := executeCommand(t, "report", "day", "--backend", "csv", "--data-dir", dir)
	if err != nil {
		t.Fatalf("report error: %v", err)
	}
	if !strings.Contains(out, "Kitty") || !strings.Contains(out, "75.0%") {
		t.Errorf("report output:\n%s", out)
	}

	out, err = executeCommand(t, "report", "week", "--json", "--backend", "csv", "--data-dir", dir)
	if err != nil {
		t.Fatalf("report --json error: %v", err)
	}
	if !strings.Contains(out, `"total_seconds": 120`) {
		t.Errorf("report --json output = %s", out)
	}

	if _, err := executeCommand(t, "report", "decade", "--backend", "csv", "--data-dir", dir); err == nil {
		t.Error("report accepted an unknown period")
	}
}

func TestExport(t *testing.T) {
	dir, today := seededDataDir(t)

	out, err := executeCommand(t, "export", "--legacy", "--backend", "csv", "--data-dir", dir)
	if err != nil {
		t.Fatalf("export error: %v", err)
	}
	want := "date,identity,duration\n" + today.String() + ",Kitty,00h:01m:30s\n"
	if !strings.HasPrefix(out, want) {
		t.Errorf("export output = %q, want prefix %q", out, want)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if _, err := executeCommand(t, "export", "--out", path, "--backend", "csv", "--data-dir", dir); err != nil {
		t.Fatalf("export --out error: %v", err)
	}
	back, err := tablefile.Open(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	records, err := back.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}
	if len(records) != 2 || records[0].Identity != "Kitty" || records[0].Duration != 90*time.Second {
		t.Errorf("exported records = %+v", records)
	}
}

func TestClear(t *testing.T) {
	dir, _ := seededDataDir(t)

	if _, err := executeCommand(t, "clear", "--backend", "csv", "--data-dir", dir); err == nil {
		t.Error("clear without --yes succeeded on a non-terminal stdin")
	}

	out, err := executeCommand(t, "clear", "--yes", "--backend", "csv", "--data-dir", dir)
	if err != nil {
		t.Fatalf("clear --yes error: %v", err)
	}
	if !strings.Contains(out, "Storage cleared") {
		t.Errorf("clear output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "usage.csv")); !os.IsNotExist(err) {
		t.Errorf("table still exists after clear: %v", err)
	}
}

func TestInvalidFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	if _, err := executeCommand(t, "records", "--backend", "duckdb", "--data-dir", dir); err == nil {
		t.Error("records accepted an unknown backend")
	}
	if _, err := executeCommand(t, "records", "--log-level", "loud", "--data-dir", dir); err == nil {
		t.Error("records accepted an unknown log level")
	}
}

func TestErrorsWithSQLite(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	out, err := executeCommand(t, "errors", "--backend", "sqlite", "--data-dir", dir)
	if err != nil {
		t.Fatalf("errors error: %v", err)
	}
	if !strings.Contains(out, "No errors recorded") {
		t.Errorf("errors output = %q", out)
	}

	out, _ = executeCommand(t, "errors", "--backend", "csv", "--data-dir", dir)
	if !strings.Contains(out, "keeps no error log") {
		t.Errorf("errors output for csv = %q", out)
	}
}

// missingSession points the environment at a Hyprland instance whose socket
// never appears.
func missingSession(t *testing.T, required bool) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "test")
	t.Setenv("CTVTCNTR_PROVIDER", "hyprland")
	t.Setenv("CTVTCNTR_SESSION_TIMEOUT", "50ms")
	if required {
		t.Setenv("CTVTCNTR_SESSION_REQUIRED", "true")
	} else {
		t.Setenv("CTVTCNTR_SESSION_REQUIRED", "false")
	}
}

func TestRunSessionRequired(t *testing.T) {
	missingSession(t, true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := executeCommandContext(t, ctx, "run", "--dry-run", "--data-dir", t.TempDir())
	if !errors.Is(err, session.ErrTimeout) {
		t.Fatalf("run error = %v, want session timeout\n%s", err, out)
	}
	if strings.Contains(out, "starting degraded") {
		t.Errorf("required session started degraded:\n%s", out)
	}
}

func TestRunSessionDegraded(t *testing.T) {
	missingSession(t, false)

	ctx, cancel := context.WithTimeout(context.Background(), 700*time.Millisecond)
	defer cancel()
	out, err := executeCommandContext(t, ctx, "run", "--dry-run", "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("run error: %v\n%s", err, out)
	}
	for _, want := range []string{"starting degraded", "tracker stopped"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q:\n%s", want, out)
		}
	}
}
