package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-a", "127.0.0.1:50051", "-d", "postgres://x"},
			allowed: []string{"-a", "-i"},
			want:    []string{"-a", "127.0.0.1:50051"},
		},
		{
			name:    "equals form",
			args:    []string{"-autosave=5s", "-undo", "3s"},
			allowed: []string{"-autosave"},
			want:    []string{"-autosave=5s"},
		},
		{
			name:    "double dash matches single dash spelling",
			args:    []string{"--config", "client.json", "--tz=Europe/Riga"},
			allowed: []string{"-config", "-tz"},
			want:    []string{"--config", "client.json", "--tz=Europe/Riga"},
		},
		{
			name:    "boolean flag followed by another flag",
			args:    []string{"-demo", "-n", "20"},
			allowed: []string{"-demo", "-n"},
			want:    []string{"-demo", "-n", "20"},
		},
		{
			name:    "positionals and unknown flags dropped",
			args:    []string{"positional", "-x", "1"},
			allowed: []string{"-a"},
			want:    []string{},
		},
		{
			name:    "flag at the end without value",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"cli", "-a", "x:1", "-c", "afterlog.json"}
	assert.Equal(t, "afterlog.json", JsonConfigFlags())

	os.Args = []string{"cli", "--config=server.json"}
	assert.Equal(t, "server.json", JsonConfigFlags())

	os.Args = []string{"cli", "-a", "x:1"}
	assert.Equal(t, "", JsonConfigFlags())
}
