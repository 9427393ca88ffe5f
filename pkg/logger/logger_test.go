package logger

import "testing"

func TestInitLevels(t *testing.T) {
	cases := map[string]string{
		"debug":   "debug",
		"WARNING": "warn",
		"error":   "error",
		"":        "info",
		"bogus":   "info",
	}
	for in, want := range cases {
		Init(in)
		if got := LevelString(); got != want {
			t.Fatalf("Init(%q): got level %q, want %q", in, got, want)
		}
	}
	Init("info")
}

func TestShouldLog(t *testing.T) {
	Init("warn")
	defer Init("info")
	if shouldLog(LevelDebug) || shouldLog(LevelInfo) {
		t.Fatal("debug/info must be suppressed at warn level")
	}
	if !shouldLog(LevelWarn) || !shouldLog(LevelError) {
		t.Fatal("warn/error must pass at warn level")
	}
}
