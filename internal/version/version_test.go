package version

import "testing"

func TestString(t *testing.T) {
	want := "cadence.report dev (unknown, built unknown)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := Current(); got.Version != Version || got.GitSHA != GitSHA {
		t.Errorf("Current() = %+v", got)
	}
}
