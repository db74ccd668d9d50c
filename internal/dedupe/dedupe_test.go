package dedupe

import (
	"reflect"
	"testing"
)

func TestDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.example.com:8080/sub?a=1", "example.com"},
		{"https://sub.example.com/x", "sub.example.com"},
		{"http://example.com", "example.com"},
		{"not a url at all", "not a url at all"},
		{"/relative/path", "/relative/path"},
	}
	for _, tt := range tests {
		if got := Domain(tt.in); got != tt.want {
			t.Errorf("Domain(%q)=%q, want=%q", tt.in, got, tt.want)
		}
	}
}

func TestByDomain_LastWriteWins(t *testing.T) {
	in := []string{
		"https://a.com/first",
		"https://b.com/only",
		"https://a.com/second",
	}
	got := ByDomain(in)
	want := []string{"https://a.com/second", "https://b.com/only"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v, want=%v", got, want)
	}
}

func TestByDomain_NeverGrows(t *testing.T) {
	in := []string{
		"https://a.com/1", "https://a.com/2", "https://a.com/3",
		"https://www.a.com/4", "https://a.com:8443/5",
	}
	got := ByDomain(in)
	if len(got) > len(in) {
		t.Fatalf("output grew: %d > %d", len(got), len(in))
	}
	// www and port variants all collapse onto a.com.
	if len(got) != 1 || got[0] != "https://a.com:8443/5" {
		t.Fatalf("got=%v, want the last a.com entry only", got)
	}
}

func TestByDomain_AnnotatedLinesKeyOnTrailingURL(t *testing.T) {
	in := []string{
		"available: 1.5 GB https://a.com/sub",
		"available: 9.0 GB https://a.com/other",
		"available: 2.0 GB https://b.com/sub",
	}
	got := ByDomain(in)
	want := []string{
		"available: 9.0 GB https://a.com/other",
		"available: 2.0 GB https://b.com/sub",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v, want=%v", got, want)
	}
}

func TestByDomain_AnnotatedAndPlainCollide(t *testing.T) {
	in := []string{
		"https://a.com/plain",
		"available: 1.0 GB https://a.com/annotated",
	}
	got := ByDomain(in)
	if len(got) != 1 || got[0] != "available: 1.0 GB https://a.com/annotated" {
		t.Fatalf("got=%v, want the annotated line", got)
	}
}

func TestByDomain_Empty(t *testing.T) {
	if got := ByDomain(nil); len(got) != 0 {
		t.Fatalf("got=%v, want empty", got)
	}
}
