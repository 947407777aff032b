//go:build linux

package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jezek/xgb/xproto"
)

func TestMergeAtoms(t *testing.T) {
	got := mergeAtoms([]uint32{3, 5}, []xproto.Atom{5, 7, 3, 9})
	if diff := cmp.Diff([]xproto.Atom{3, 5, 7, 9}, got); diff != "" {
		t.Errorf("mergeAtoms mismatch (-want +got):\n%s", diff)
	}
}

func TestCompositorProcess(t *testing.T) {
	proc := func(t *testing.T, comms ...string) string {
		root := t.TempDir()
		for i, c := range comms {
			dir := filepath.Join(root, string(rune('1'+i)))
			if err := os.MkdirAll(dir, 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(dir, "comm"), []byte(c+"\n"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		return root
	}

	tests := []struct {
		name  string
		comms []string
		want  CompositorStatus
	}{
		{"picom running", []string{"bash", "picom"}, CompositorActive},
		{"none running", []string{"bash", "xterm"}, CompositorInactive},
		{"no processes", nil, CompositorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compositorProcess(proc(t, tt.comms...)); got != tt.want {
				t.Errorf("compositorProcess = %v, want %v", got, tt.want)
			}
		})
	}
}
