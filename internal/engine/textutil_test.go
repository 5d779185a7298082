package engine

import "testing"

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<b>Hello</b> world", "Hello world"},
		{"  plain  ", "plain"},
		{`<font color="#E5E5E5">[Music]</font>`, "[Music]"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CleanHTML(tt.in); got != tt.want {
				t.Errorf("CleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
