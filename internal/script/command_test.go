package script

import "testing"

func TestParse_RecognizedCommands(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"begin(T1)", Command{Kind: Begin, TID: "T1", Raw: "begin(T1)"}},
		{"R(T1, x3)", Command{Kind: Read, TID: "T1", Variable: "x3", Raw: "R(T1, x3)"}},
		{"W(T1, x3, 42)", Command{Kind: Write, TID: "T1", Variable: "x3", Value: 42, Raw: "W(T1, x3, 42)"}},
		{"W(T1, x3, -5)", Command{Kind: Write, TID: "T1", Variable: "x3", Value: -5, Raw: "W(T1, x3, -5)"}},
		{"end(T1)", Command{Kind: End, TID: "T1", Raw: "end(T1)"}},
		{"fail(2)", Command{Kind: SiteFail, Site: 2, Raw: "fail(2)"}},
		{"recover(2)", Command{Kind: SiteRecover, Site: 2, Raw: "recover(2)"}},
		{"dump()", Command{Kind: Dump, Raw: "dump()"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := Parse(tt.line)
			if !ok {
				t.Fatalf("Parse(%q) ok = false, want true", tt.line)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParse_IgnoresNonCommandLines(t *testing.T) {
	for _, line := range []string{"", "hello world", "beginT1)", "// a comment"} {
		if _, ok := Parse(line); ok {
			t.Fatalf("Parse(%q) ok = true, want false", line)
		}
	}
}

func TestParse_MalformedPrefixedLineIsAdmittedButMalformed(t *testing.T) {
	got, ok := Parse("R(T1, xNotANumber)")
	if !ok {
		t.Fatalf("Parse on malformed prefixed line: ok = false, want true")
	}
	if got.Kind != Malformed {
		t.Fatalf("Parse malformed line: Kind = %v, want Malformed", got.Kind)
	}
}

func TestStripComment(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"begin(T1)", "begin(T1)"},
		{"begin(T1) // start", "begin(T1)"},
		{"  begin(T1)  ", "begin(T1)"},
		{"// just a comment", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripComment(tt.in); got != tt.want {
			t.Fatalf("StripComment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
