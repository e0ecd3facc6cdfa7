package task

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// Store persists and retrieves tasks. Implementations must make Move
// all-or-nothing: the task file exists at exactly one of the two locations
// at every point in time, never both and never neither.
type Store interface {
	// Create persists a new task into the given state and returns its
	// assigned ID.
	Create(st State, t *Task) (string, error)

	// Read loads a task from a specific state location.
	Read(st State, id string) (*Task, error)

	// Write atomically rewrites the task's file inside the given location.
	Write(st State, t *Task) error

	// Move atomically relocates a task's file between two locations.
	Move(id string, from, to State) error

	// List returns every task held in the given location.
	List(st State) ([]*Task, error)

	// Locate returns every location that physically holds the task's file.
	// A healthy task appears in exactly one.
	Locate(id string) ([]State, error)
}

// FileOpError wraps a failed storage operation. Callers may retry unless
// Permanent is set (e.g. a cross-device rename, which can never succeed).
type FileOpError struct {
	Op        string
	Path      string
	Permanent bool
	Err       error
}

func (e *FileOpError) Error() string {
	return fmt.Sprintf("file operation %s on %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileOpError) Unwrap() error { return e.Err }

const taskExt = ".md"

// DirStore is the filesystem implementation of Store: one directory per
// workflow state under a common root, plus a sibling directory for audit
// logs. Relocation relies on same-volume rename semantics, the one atomic
// primitive the design leans on.
type DirStore struct {
	root string

	// moveAttempts bounds retries of transient rename failures.
	moveAttempts int
	moveBackoff  time.Duration
}

// AuditDirName is the extra location reserved for audit log storage. It is
// not a task state.
const AuditDirName = "audit"

// NewDirStore opens (or creates) the location tree under root: one
// directory per workflow state plus the audit directory.
func NewDirStore(root string) (*DirStore, error) {
	for _, st := range States {
		if err := os.MkdirAll(filepath.Join(root, string(st)), 0o755); err != nil {
			return nil, fmt.Errorf("create location %s: %w", st, err)
		}
	}
	if err := os.MkdirAll(filepath.Join(root, AuditDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create audit location: %w", err)
	}
	return &DirStore{root: root, moveAttempts: 3, moveBackoff: 50 * time.Millisecond}, nil
}

// Root returns the directory the store was opened at.
func (s *DirStore) Root() string { return s.root }

// AuditDir returns the location reserved for audit log files.
func (s *DirStore) AuditDir() string { return filepath.Join(s.root, AuditDirName) }

func (s *DirStore) path(st State, id string) string {
	return filepath.Join(s.root, string(st), id+taskExt)
}

// newID generates a random hex UUID.
func newID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// validID rejects identifiers that could escape a location directory.
func validID(id string) error {
	if id == "" {
		return errors.New("empty task id")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("task id %q is not a safe file name", id)
	}
	return nil
}

// Create persists a new task and sets its ID, CreatedAt, and UpdatedAt.
// The declared state is forced to match the holding location.
func (s *DirStore) Create(st State, t *Task) (string, error) {
	if !st.Valid() {
		return "", fmt.Errorf("unknown state %q", st)
	}
	if t.ID == "" {
		id, err := newID()
		if err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		t.ID = id
	}
	if err := validID(t.ID); err != nil {
		return "", err
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.State = st
	if len(t.History) == 0 {
		t.History = []HistoryEntry{{State: st, At: now, Actor: ActorSystem}}
	}
	if _, err := os.Stat(s.path(st, t.ID)); err == nil {
		return "", fmt.Errorf("task %s already exists in %s", t.ID, st)
	}
	if err := s.Write(st, t); err != nil {
		return "", err
	}
	return t.ID, nil
}

// Read loads and parses a task file from one location.
func (s *DirStore) Read(st State, id string) (*Task, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(st, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("task %s not found in %s: %w", id, st, err)
		}
		return nil, &FileOpError{Op: "read", Path: s.path(st, id), Err: err}
	}
	t, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("task %s in %s: %w", id, st, err)
	}
	return t, nil
}

// Write rewrites the task file in place. The write goes to a temp file in
// the same directory and is renamed over the target, so readers observe
// either the old or the new header, never a torn one.
func (s *DirStore) Write(st State, t *Task) error {
	if err := validID(t.ID); err != nil {
		return err
	}
	data, err := Marshal(t)
	if err != nil {
		return err
	}
	dir := filepath.Join(s.root, string(st))
	tmp, err := os.CreateTemp(dir, "."+t.ID+"-*.tmp")
	if err != nil {
		return &FileOpError{Op: "write", Path: dir, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &FileOpError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &FileOpError{Op: "sync", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &FileOpError{Op: "close", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, s.path(st, t.ID)); err != nil {
		os.Remove(tmpName)
		return &FileOpError{Op: "rename", Path: s.path(st, t.ID), Err: err}
	}
	return nil
}

// Move relocates a task file between locations with a single rename.
// Transient failures are retried a bounded number of times with backoff;
// a cross-device rename is rejected outright because copy+delete cannot
// honor the all-or-nothing guarantee. On any failure the file remains at
// its original location untouched.
func (s *DirStore) Move(id string, from, to State) error {
	if err := validID(id); err != nil {
		return err
	}
	src := s.path(from, id)
	dst := s.path(to, id)

	if _, err := os.Stat(src); err != nil {
		return &FileOpError{Op: "move", Path: src, Permanent: true, Err: fmt.Errorf("source missing: %w", err)}
	}
	if _, err := os.Stat(dst); err == nil {
		return &FileOpError{Op: "move", Path: dst, Permanent: true, Err: errors.New("destination already occupied")}
	}

	var lastErr error
	for attempt := 0; attempt < s.moveAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(s.moveBackoff * time.Duration(attempt))
		}
		err := os.Rename(src, dst)
		if err == nil {
			return nil
		}
		if errors.Is(err, syscall.EXDEV) {
			return &FileOpError{Op: "move", Path: src, Permanent: true,
				Err: fmt.Errorf("cross-device rename not atomic: %w", err)}
		}
		lastErr = err
	}
	return &FileOpError{Op: "move", Path: src, Err: lastErr}
}

// List returns every task in a location, ordered by file name for
// deterministic scans.
func (s *DirStore) List(st State) ([]*Task, error) {
	dir := filepath.Join(s.root, string(st))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &FileOpError{Op: "list", Path: dir, Err: err}
	}
	var tasks []*Task
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), taskExt) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), taskExt)
		t, err := s.Read(st, id)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Locate scans every state location for the task's file. Exactly one hit
// is healthy; zero means unknown, more than one is a consistency
// violation the caller must surface.
func (s *DirStore) Locate(id string) ([]State, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	var found []State
	for _, st := range States {
		if _, err := os.Stat(s.path(st, id)); err == nil {
			found = append(found, st)
		} else if !os.IsNotExist(err) {
			return nil, &FileOpError{Op: "locate", Path: s.path(st, id), Err: err}
		}
	}
	return found, nil
}
