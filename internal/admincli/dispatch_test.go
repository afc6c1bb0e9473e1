package admincli

import (
	"strings"
	"testing"
)

func TestDispatch(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		mode    Mode
		command string
	}{
		{"no arguments is interactive", nil, ModeInteractive, ""},
		{"empty slice is interactive", []string{}, ModeInteractive, ""},
		{"-h alone is help", []string{"-h"}, ModeHelp, ""},
		{"-h first wins over extras", []string{"-h", "extra"}, ModeHelp, ""},
		{"-h not first is command text", []string{"extra", "-h"}, ModeRunCommand, "extra -h"},
		{"command words are joined", []string{"SHOW", "POOLS"}, ModeRunCommand, "SHOW POOLS"},
		{"single word command", []string{"RELOAD"}, ModeRunCommand, "RELOAD"},
		{"other flags are command text", []string{"--help"}, ModeRunCommand, "--help"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := Dispatch(tt.args)
			if inv.Mode != tt.mode {
				t.Errorf("Dispatch(%v).Mode = %v, want %v", tt.args, inv.Mode, tt.mode)
			}
			if inv.Command != tt.command {
				t.Errorf("Dispatch(%v).Command = %q, want %q", tt.args, inv.Command, tt.command)
			}
		})
	}
}

func TestUsageText(t *testing.T) {
	if !strings.Contains(Usage, "pgbouncer-admin") {
		t.Error("usage text should name the program")
	}
	if !strings.Contains(Usage, "-h") {
		t.Error("usage text should describe the -h flag")
	}
	if !strings.Contains(Usage, "PGBOUNCER_HOST") {
		t.Error("usage text should list the environment variables")
	}
}
