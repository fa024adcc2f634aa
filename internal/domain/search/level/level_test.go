package level

import "testing"

func TestLevel_IsValid(t *testing.T) {
	tests := []struct {
		l    Level
		want bool
	}{
		{Global, true},
		{Group, true},
		{Project, true},
		{"", false},
		{"instance", false},
	}
	for _, tt := range tests {
		if got := tt.l.IsValid(); got != tt.want {
			t.Errorf("Level(%q).IsValid() = %v, want %v", tt.l, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	l, err := Parse("group")
	if err != nil || l != Group {
		t.Fatalf("Parse(group) = %q, %v", l, err)
	}

	l, err = Parse("")
	if err != nil || l.IsSet() {
		t.Fatalf("Parse(\"\") = %q, %v", l, err)
	}

	if _, err := Parse("galaxy"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
