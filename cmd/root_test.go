package cmd

import "testing"

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"serve":   false,
		"ask":     false,
		"ingest":  false,
		"corpus":  false,
		"version": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %s not registered", name)
		}
	}
}

func TestCorpusSubcommands(t *testing.T) {
	subs := corpusCmd.Commands()
	if len(subs) != 2 {
		t.Fatalf("got %d corpus subcommands, want 2", len(subs))
	}
}
