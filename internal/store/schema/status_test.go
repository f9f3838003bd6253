package schema

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"open", StatusOpen, false},
		{" Done ", StatusDone, false},
		{"in-progress", StatusInProgress, false},
		{"IN_PROGRESS", StatusInProgress, false},
		{"cancelled", StatusCancelled, false},
		{"closed", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownStatus) {
					t.Fatalf("ParseStatus(%q) error = %v, want ErrUnknownStatus", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatus(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to    Status
		wantChanged bool
		wantErr     bool
	}{
		{StatusOpen, StatusInProgress, true, false},
		{StatusOpen, StatusDone, true, false},
		{StatusOpen, StatusOpen, false, false},
		{StatusInProgress, StatusOpen, true, false},
		{StatusInProgress, StatusCancelled, true, false},
		{StatusDone, StatusDone, false, false},
		{StatusDone, StatusOpen, true, false},
		{StatusDone, StatusCancelled, false, true},
		{StatusDone, StatusInProgress, false, true},
		{StatusCancelled, StatusCancelled, false, false},
		{StatusCancelled, StatusOpen, true, false},
		{StatusCancelled, StatusDone, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			changed, err := CheckTransition(tt.from, tt.to)
			if tt.wantErr {
				if !errors.Is(err, ErrTransition) {
					t.Fatalf("CheckTransition() error = %v, want ErrTransition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckTransition() failed: %v", err)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
		})
	}
}

func TestCheckTransition_UnknownStatus(t *testing.T) {
	if _, err := CheckTransition(StatusOpen, Status("closed")); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, st := range Statuses {
		want := st == StatusDone || st == StatusCancelled
		if st.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", st, st.Terminal(), want)
		}
	}
}
