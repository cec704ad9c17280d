package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		allowed   []string
		boolFlags []string
		want      []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "homeserver.yaml", "-p", "8448"},
			allowed: []string{"-c"},
			want:    []string{"-c", "homeserver.yaml"},
		},
		{
			name:    "equals form",
			args:    []string{"--config=alt.yaml", "-p", "8448"},
			allowed: []string{"-c", "--config"},
			want:    []string{"--config=alt.yaml"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "next flag is not taken as value",
			args:    []string{"-c", "--config=alt.yaml"},
			allowed: []string{"-c", "--config"},
			want:    []string{"-c", "--config=alt.yaml"},
		},
		{
			name:    "repeated flags keep order",
			args:    []string{"-c", "one.yaml", "-c", "two.yaml"},
			allowed: []string{"-c"},
			want:    []string{"-c", "one.yaml", "-c", "two.yaml"},
		},
		{
			name:      "bool flag does not swallow a positional",
			args:      []string{"-w", "serve", "-p", "8448"},
			allowed:   []string{"-p"},
			boolFlags: []string{"-w"},
			want:      []string{"-w", "-p", "8448"},
		},
		{
			name:      "bool flag with explicit value",
			args:      []string{"-w=false"},
			boolFlags: []string{"-w"},
			want:      []string{"-w=false"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed, tt.boolFlags...))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "short", args: []string{"-c", "/etc/homeserver.yaml"}, want: "/etc/homeserver.yaml"},
		{name: "long", args: []string{"-config", "/etc/homeserver.json"}, want: "/etc/homeserver.json"},
		{name: "double dash equals", args: []string{"--config=hs.yaml", "-p", "8448"}, want: "hs.yaml"},
		{name: "absent", args: []string{"-p", "8448"}, want: ""},
		{name: "missing value", args: []string{"-c"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFileFlag(tt.args))
		})
	}
}
