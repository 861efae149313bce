package utils

import "testing"

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{0.5, "0.5"},
		{-0.0001, "-0.0001"},
		{0.00001, "1e-05"},
		{1e16, "1e+16"},
		{18446744073709551616, "1.8446744073709552e+19"},
		{123456789.25, "123456789.25"},
		{0.30000000000000004, "0.30000000000000004"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in, 64); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc", "'abc'"},
		{"it's", `"it's"`},
		{`a'b"c`, `'a\'b"c'`},
		{"line\nnext\t", `'line\nnext\t'`},
		{"\x01", `'\x01'`},
		{"héllo", "'héllo'"},
	}
	for _, tt := range tests {
		if got := QuoteString(tt.in); got != tt.want {
			t.Errorf("QuoteString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMemberCandidates(t *testing.T) {
	got := MemberCandidates("write")
	if len(got) != 2 || got[0] != "write" || got[1] != "Write" {
		t.Fatalf("MemberCandidates(write) = %v", got)
	}
	if got := MemberCandidates("String"); len(got) != 1 {
		t.Fatalf("MemberCandidates(String) = %v", got)
	}
	if ExportedName("_x") != "_x" {
		t.Fatalf("ExportedName(_x) changed the name")
	}
}

func TestExtractModuleName(t *testing.T) {
	if got := ExtractModuleName("/tmp/scripts/hello.py"); got != "hello" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractModuleName(""); got != "__main__" {
		t.Fatalf("got %q", got)
	}
	if got := GetModuleDir("/tmp/scripts/prog.json"); got != "/tmp/scripts" {
		t.Fatalf("got %q", got)
	}
}
