package audit

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func appendN(t *testing.T, l *Logger, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := l.Append(Entry{
			Severity: SeverityInfo,
			Action:   "transition",
			TaskID:   "task-1",
			Result:   ResultSuccess,
			Context:  map[string]string{"seq": string(rune('a' + i))},
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
}

func TestAppend_ChainsHashes(t *testing.T) {
	l := newTestLogger(t)
	appendN(t, l, 3)

	entries, err := l.Query(time.Now().UTC().Add(-time.Hour), time.Now().UTC().Add(time.Hour), "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].PrevHash != "" {
		t.Errorf("genesis prev_hash = %q, want empty", entries[0].PrevHash)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].PrevHash != entries[i-1].Hash {
			t.Errorf("entry %d prev_hash does not link to entry %d", i, i-1)
		}
	}
}

func TestVerifyIntegrity_CleanLog(t *testing.T) {
	l := newTestLogger(t)
	appendN(t, l, 5)
	ok, err := l.VerifyIntegrity()
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if !ok {
		t.Error("clean log failed verification")
	}
}

func TestVerifyIntegrity_EmptyLog(t *testing.T) {
	l := newTestLogger(t)
	ok, err := l.VerifyIntegrity()
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if !ok {
		t.Error("empty log failed verification")
	}
}

func TestVerifyIntegrity_DetectsTamperedLine(t *testing.T) {
	l := newTestLogger(t)
	appendN(t, l, 3)

	files, err := l.dayFiles()
	if err != nil || len(files) != 1 {
		t.Fatalf("dayFiles: %v (%d files)", err, len(files))
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// Out-of-band edit of a previously written line.
	edited := strings.Replace(string(data), `"task_id":"task-1"`, `"task_id":"task-9"`, 1)
	if edited == string(data) {
		t.Fatal("test edit did not apply")
	}
	if err := os.WriteFile(files[0], []byte(edited), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ok, err := l.VerifyIntegrity()
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if ok {
		t.Error("tampered log passed verification")
	}
}

func TestVerifyIntegrity_DetectsDroppedEntry(t *testing.T) {
	l := newTestLogger(t)
	appendN(t, l, 3)

	files, _ := l.dayFiles()
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.SplitN(string(data), "\n", 3)
	// Drop the middle entry.
	if err := os.WriteFile(files[0], []byte(lines[0]+"\n"+lines[2]), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ok, err := l.VerifyIntegrity()
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if ok {
		t.Error("log with dropped entry passed verification")
	}
}

func TestReopen_SeedsChainFromDisk(t *testing.T) {
	dir := t.TempDir()
	l1, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	appendN(t, l1, 2)

	// A fresh logger over the same directory must continue the chain, not
	// restart it.
	l2, err := New(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	appendN(t, l2, 2)

	ok, err := l2.VerifyIntegrity()
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if !ok {
		t.Error("chain broken across reopen")
	}
}

func TestChain_SpansDayFiles(t *testing.T) {
	l := newTestLogger(t)

	day1 := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return day1 }
	appendN(t, l, 2)
	l.now = func() time.Time { return day2 }
	appendN(t, l, 2)

	files, err := l.dayFiles()
	if err != nil {
		t.Fatalf("dayFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d day files, want 2", len(files))
	}
	ok, err := l.VerifyIntegrity()
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if !ok {
		t.Error("cross-day chain failed verification")
	}

	// Deleting a whole day breaks the chain.
	if err := os.Remove(files[0]); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	ok, err = l.VerifyIntegrity()
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if ok {
		t.Error("chain survived deletion of a day file")
	}
}

func TestQuery_Filters(t *testing.T) {
	l := newTestLogger(t)
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	for i, taskID := range []string{"a", "b", "a"} {
		tick := base.Add(time.Duration(i) * time.Minute)
		l.now = func() time.Time { return tick }
		err := l.Append(Entry{Severity: SeverityInfo, Action: "transition", TaskID: taskID, Result: ResultSuccess})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := l.Query(base, base.Add(time.Hour), "a")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("task filter returned %d entries, want 2", len(got))
	}

	got, err = l.Query(base.Add(30*time.Second), base.Add(90*time.Second), "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("time filter returned %d entries, want 1", len(got))
	}
	// Chronological order is preserved.
	all, err := l.Query(base, base.Add(time.Hour), "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for i := 1; i < len(all); i++ {
		if all[i].Time.Before(all[i-1].Time) {
			t.Errorf("entries out of order at %d", i)
		}
	}
}

func TestAppend_WriteFailureFallsBack(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Remove the directory so the open fails.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	err = l.Append(Entry{Severity: SeverityInfo, Action: "transition", Result: ResultSuccess})
	if err == nil {
		t.Fatal("Append into missing dir succeeded")
	}
	var we *WriteError
	if !errors.As(err, &we) {
		t.Errorf("error = %T, want *WriteError", err)
	}
}
