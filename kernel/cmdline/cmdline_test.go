package cmdline

import "testing"

func TestParseOrderAndRepeats(t *testing.T) {
	toks := Parse("log=warn app=mac-all log.boot=debug app=mac-all")

	want := []Token{
		{Kind: Log, Level: "warn"},
		{Kind: App, App: "mac-all"},
		{Kind: LogTag, Tag: "boot", Level: "debug"},
		{Kind: App, App: "mac-all"},
	}

	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Errorf("token %d: got %+v, want %+v", i, toks[i], want[i])
		}
	}
}

func TestParseUnrecognizedTokensSkipped(t *testing.T) {
	toks := Parse("quiet foo=bar app=http-hello")

	if len(toks) != 1 || toks[0].Kind != App || toks[0].App != "http-hello" {
		t.Errorf("got %+v", toks)
	}
}

func TestParseLogTagMissingEquals(t *testing.T) {
	toks := Parse("log.boot app=mac-all")

	if len(toks) != 1 || toks[0].App != "mac-all" {
		t.Errorf("malformed log.<tag> token without '=' should be skipped, got %+v", toks)
	}
}

func TestParseEmpty(t *testing.T) {
	if toks := Parse("   "); len(toks) != 0 {
		t.Errorf("got %+v, want empty", toks)
	}
}
