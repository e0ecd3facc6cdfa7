// Package audit provides the append-only, tamper-evident audit trail.
//
// Every workflow transition, approval event, and error becomes one JSON
// line in a day-partitioned file. Each entry carries a SHA-256 hash over
// its own fields plus the previous entry's hash, forming a rolling chain:
// editing, reordering, or dropping a line breaks verification.
package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Severity grades an audit entry.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarn     Severity = "warn"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Result records how the audited action ended.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultPending Result = "pending"
)

// Entry is a single audit record. Context uses map[string]string so
// json.Marshal produces deterministic key order, which the hash chain
// depends on.
type Entry struct {
	Time     time.Time         `json:"time"`
	Severity Severity          `json:"severity"`
	Action   string            `json:"action"`
	TaskID   string            `json:"task_id,omitempty"`
	Result   Result            `json:"result"`
	Error    string            `json:"error,omitempty"`
	Context  map[string]string `json:"context,omitempty"`
	PrevHash string            `json:"prev_hash"`
	Hash     string            `json:"hash"`
}

// WriteError reports a failed audit append. The caller's primary effect is
// never rolled back because of one; the task is flagged for reconciliation
// instead.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("audit append to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

const (
	filePrefix = "audit-"
	fileSuffix = ".jsonl"
	dayFormat  = "2006-01-02"
)

// Logger appends hash-chained entries to day-partitioned JSONL files.
// It keeps no authoritative in-memory state: the chain tip is seeded from
// disk at open and only advanced after a successful write.
type Logger struct {
	dir      string
	fallback *slog.Logger

	mu       sync.Mutex
	lastHash string

	now func() time.Time
}

// New opens a logger over the given directory, seeding the hash chain from
// the last entry already on disk. The fallback logger is the emergency
// channel used when an append fails; pass nil for slog.Default.
func New(dir string, fallback *slog.Logger) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	if fallback == nil {
		fallback = slog.Default()
	}
	l := &Logger{dir: dir, fallback: fallback, now: time.Now}
	tip, err := l.chainTip()
	if err != nil {
		return nil, err
	}
	l.lastHash = tip
	return l, nil
}

// dayFiles returns the logger's day files sorted chronologically. The date
// is embedded in the name, so lexical order is chronological order.
func (l *Logger) dayFiles() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read audit dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		files = append(files, filepath.Join(l.dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// chainTip reads the hash of the last entry on disk, or "" for an empty log.
func (l *Logger) chainTip() (string, error) {
	files, err := l.dayFiles()
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", nil
	}
	last := files[len(files)-1]
	entries, err := readFile(last)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}
	return entries[len(entries)-1].Hash, nil
}

// hashEntry computes the chain hash: SHA-256 over the serialized entry
// with its own Hash field blanked (PrevHash included).
func hashEntry(e Entry) (string, error) {
	e.Hash = ""
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Append serializes the entry, links it to the chain, and appends it to
// the current day's file. Existing bytes are never rewritten. On write
// failure the entry is echoed to the emergency channel and a WriteError is
// returned so the caller can flag the affected task.
func (l *Logger) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Time.IsZero() {
		e.Time = l.now().UTC()
	}
	e.Time = e.Time.UTC()
	e.PrevHash = l.lastHash
	hash, err := hashEntry(e)
	if err != nil {
		return l.emergency(e, err)
	}
	e.Hash = hash

	line, err := json.Marshal(e)
	if err != nil {
		return l.emergency(e, err)
	}

	path := filepath.Join(l.dir, filePrefix+e.Time.Format(dayFormat)+fileSuffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return l.emergency(e, err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return l.emergency(e, err)
	}
	if err := f.Sync(); err != nil {
		return l.emergency(e, err)
	}

	l.lastHash = e.Hash
	return nil
}

// emergency routes a failed append to the side channel and wraps the error.
func (l *Logger) emergency(e Entry, err error) error {
	l.fallback.Error("audit append failed",
		"action", e.Action,
		"task", e.TaskID,
		"severity", string(e.Severity),
		"error", err,
	)
	return &WriteError{Path: l.dir, Err: err}
}

// Query returns entries between start and end inclusive, in chronological
// order. A non-empty taskID narrows the scan to that task.
func (l *Logger) Query(start, end time.Time, taskID string) ([]Entry, error) {
	files, err := l.dayFiles()
	if err != nil {
		return nil, err
	}
	startDay := start.UTC().Format(dayFormat)
	endDay := end.UTC().Format(dayFormat)

	var out []Entry
	for _, path := range files {
		day := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), filePrefix), fileSuffix)
		if day < startDay || day > endDay {
			continue
		}
		entries, err := readFile(path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Time.Before(start) || e.Time.After(end) {
				continue
			}
			if taskID != "" && e.TaskID != taskID {
				continue
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// VerifyIntegrity walks every entry in chronological order, recomputing
// each hash and checking chain linkage and timestamp ordering. It returns
// false on any mismatch; the error reports unreadable files only.
func (l *Logger) VerifyIntegrity() (bool, error) {
	files, err := l.dayFiles()
	if err != nil {
		return false, err
	}
	prevHash := ""
	var prevTime time.Time
	for _, path := range files {
		entries, err := readFile(path)
		if err != nil {
			return false, err
		}
		for _, e := range entries {
			if e.PrevHash != prevHash {
				return false, nil
			}
			want, err := hashEntry(e)
			if err != nil {
				return false, err
			}
			if e.Hash != want {
				return false, nil
			}
			if e.Time.Before(prevTime) {
				return false, nil
			}
			prevHash = e.Hash
			prevTime = e.Time
		}
	}
	return true, nil
}

// readFile parses one day file. A malformed line is an error: the log is
// machine-written and any deviation counts as corruption.
func readFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("corrupt audit line in %s: %w", filepath.Base(path), err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit file %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}
