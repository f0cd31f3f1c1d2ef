package mindmap

import (
	"errors"
	"testing"
)

func TestDeriveID(t *testing.T) {
	tests := []struct {
		name     string
		parentID string
		input    string
		want     string
		wantErr  error
	}{
		{name: "root", input: "Data Structures", want: "Data-Structures"},
		{name: "child", parentID: "Data-Structures", input: "Arrays", want: "Data-Structures-Arrays"},
		{name: "whitespace runs collapse", input: "Learn \t  Guitar\n Fast", want: "Learn-Guitar-Fast"},
		{name: "surrounding whitespace dropped", parentID: "Learn-Guitar", input: "  Open Chords ", want: "Learn-Guitar-Open-Chords"},
		{name: "empty name rejected", parentID: "Learn-Guitar", input: "", wantErr: ErrInvalidName},
		{name: "whitespace-only name rejected", input: " \t ", wantErr: ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveID(tt.parentID, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DeriveID(%q, %q) error = %v, want %v", tt.parentID, tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DeriveID(%q, %q) unexpected error: %v", tt.parentID, tt.input, err)
			}
			if got != tt.want {
				t.Errorf("DeriveID(%q, %q) = %q, want %q", tt.parentID, tt.input, got, tt.want)
			}
		})
	}
}

func TestDeriveIDDeterministic(t *testing.T) {
	a, _ := DeriveID("Learn-Guitar", "Basics")
	b, _ := DeriveID("Learn-Guitar", "Basics")
	if a != b {
		t.Fatalf("DeriveID not deterministic: %q != %q", a, b)
	}
}
