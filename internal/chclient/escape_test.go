package chclient

import "testing"

func TestEscape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"空字符串", "", ""},
		{"普通文本", "node-exporter", "node-exporter"},
		{"单引号", "it's", `it\'s`},
		{"反斜杠", `a\b`, `a\\b`},
		{"反斜杠后跟单引号", `\'`, `\\\'`},
		{"JSON 标签串", `{"job":"node's"}`, `{"job":"node\'s"}`},
		{"连续单引号", "''", `\'\'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.input); got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"it's a 'test'",
		`back\slash`,
		`mixed \' sequence`,
		`\\''\\`,
		`{"instance":"host'a\\b"}`,
	}
	for _, input := range inputs {
		if got := Unescape(Escape(input)); got != input {
			t.Errorf("Unescape(Escape(%q)) = %q, 往返应还原原文", input, got)
		}
	}
}
