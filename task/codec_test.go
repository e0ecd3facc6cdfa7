package task

import (
	"strings"
	"testing"
	"time"
)

func sampleTask() *Task {
	created := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	decided := time.Date(2026, 8, 2, 14, 0, 0, 0, time.UTC)
	return &Task{
		ID:        "task-1",
		Title:     "Send invoice to client",
		Source:    "email",
		State:     StatePendingApproval,
		Priority:  PriorityHigh,
		CreatedAt: created,
		UpdatedAt: decided,
		History: []HistoryEntry{
			{State: StateReceived, At: created, Actor: ActorSystem},
			{State: StateNeedsAction, At: created.Add(time.Minute), Actor: ActorSystem},
			{State: StatePlanned, At: created.Add(2 * time.Minute), Actor: ActorSystem},
			{State: StatePendingApproval, At: created.Add(3 * time.Minute), Actor: ActorSystem},
		},
		Approval: &Approval{
			Action:        ActionMakePayment,
			Risk:          RiskHigh,
			Justification: "client asked for the invoice",
			RequestedAt:   created.Add(3 * time.Minute),
			Decision:      DecisionApproved,
			DecidedAt:     &decided,
			DecidedBy:     "alice",
		},
		RequiresApproval: true,
		Content:          "Prepare and send the August invoice.\nAmount: $1,200.\n",
	}
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	orig := sampleTask()
	data, err := Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.ID != orig.ID || got.Title != orig.Title || got.Source != orig.Source {
		t.Errorf("identity fields differ: got %+v", got)
	}
	if got.State != orig.State || got.Priority != orig.Priority {
		t.Errorf("State/Priority = %q/%q, want %q/%q", got.State, got.Priority, orig.State, orig.Priority)
	}
	if !got.CreatedAt.Equal(orig.CreatedAt) || !got.UpdatedAt.Equal(orig.UpdatedAt) {
		t.Errorf("timestamps differ: %v %v", got.CreatedAt, got.UpdatedAt)
	}
	if len(got.History) != len(orig.History) {
		t.Fatalf("history length = %d, want %d", len(got.History), len(orig.History))
	}
	for i, h := range got.History {
		want := orig.History[i]
		if h.State != want.State || !h.At.Equal(want.At) || h.Actor != want.Actor {
			t.Errorf("history[%d] = %+v, want %+v", i, h, want)
		}
	}
	if got.Approval == nil {
		t.Fatal("approval record lost")
	}
	if got.Approval.Action != orig.Approval.Action || got.Approval.Risk != orig.Approval.Risk {
		t.Errorf("approval = %+v, want %+v", got.Approval, orig.Approval)
	}
	if got.Approval.DecidedAt == nil || !got.Approval.DecidedAt.Equal(*orig.Approval.DecidedAt) {
		t.Errorf("decided_at = %v, want %v", got.Approval.DecidedAt, orig.Approval.DecidedAt)
	}
	if got.Approval.DecidedBy != "alice" {
		t.Errorf("decided_by = %q, want alice", got.Approval.DecidedBy)
	}
	if !got.RequiresApproval {
		t.Error("requires_approval flag lost")
	}
	if got.Content != orig.Content {
		t.Errorf("content = %q, want %q", got.Content, orig.Content)
	}
}

func TestMarshalUnmarshal_NoContent(t *testing.T) {
	orig := sampleTask()
	orig.Content = ""
	data, err := Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Content != "" {
		t.Errorf("content = %q, want empty", got.Content)
	}
}

func TestUnmarshal_Malformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing fence", "id: task-1\ntitle: no fences\n"},
		{"unterminated header", "---\nid: task-1\n"},
		{"missing id", "---\ntitle: anonymous\n---\n"},
		{"bad yaml", "---\nid: [unclosed\n---\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tc.data)); err == nil {
				t.Errorf("Unmarshal(%q) succeeded, want error", tc.data)
			}
		})
	}
}

func TestMarshal_ContentNewlineTerminated(t *testing.T) {
	orig := sampleTask()
	orig.Content = "no trailing newline"
	data, err := Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.HasSuffix(string(data), "no trailing newline\n") {
		t.Errorf("marshaled file not newline-terminated: %q", string(data))
	}
}
