package models

import "testing"

func TestNormalizeDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Task
		want Task
	}{
		{
			"empty document gets all defaults",
			Task{ID: "t1"},
			Task{ID: "t1", Status: StatusPending, HandshakeStatus: HandshakeNone, Format: FormatDigital},
		},
		{
			"missing handshake only",
			Task{ID: "t1", Status: StatusRequested, Format: FormatMixed},
			Task{ID: "t1", Status: StatusRequested, HandshakeStatus: HandshakeNone, Format: FormatMixed},
		},
		{
			"fully populated document unchanged",
			Task{ID: "t1", Status: StatusInProgress, HandshakeStatus: HandshakeAccepted, Format: FormatHandwritten},
			Task{ID: "t1", Status: StatusInProgress, HandshakeStatus: HandshakeAccepted, Format: FormatHandwritten},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalize(); got != tc.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	for status, want := range map[TaskStatus]bool{
		StatusPending:    false,
		StatusRequested:  false,
		StatusInProgress: false,
		StatusReview:     false,
		StatusCompleted:  true,
		StatusCancelled:  true,
	} {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestOwnedBy(t *testing.T) {
	task := Task{AssignerID: "asg-1", WriterID: "wrt-1"}
	unpaired := Task{AssignerID: "asg-1"}

	if !task.OwnedBy("asg-1") || !task.OwnedBy("wrt-1") {
		t.Error("parties must own the task")
	}
	if task.OwnedBy("wrt-2") || task.OwnedBy("") {
		t.Error("outsiders must not own the task")
	}
	// An unset writerId must not match the empty string.
	if unpaired.OwnedBy("") {
		t.Error("empty user id matched unpaired task")
	}
}

func TestUsernameMatchesRole(t *testing.T) {
	tests := []struct {
		username string
		role     UserRole
		want     bool
	}{
		{"priya_asg", RoleAssigner, true},
		{"rahul_wrt", RoleWriter, true},
		{"priya_asg", RoleWriter, false},
		{"rahul_wrt", RoleAssigner, false},
		{"plainname", RoleAssigner, false},
		{"plainname", RoleWriter, false},
	}
	for _, tc := range tests {
		if got := UsernameMatchesRole(tc.username, tc.role); got != tc.want {
			t.Errorf("UsernameMatchesRole(%q, %s) = %v, want %v", tc.username, tc.role, got, tc.want)
		}
	}
}
