package xfs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/lib/libur_loader.so", filepath.Join(home, "lib", "libur_loader.so")},
		{"~bob/config.yaml", "~bob/config.yaml"},
		{"/opt/ur/lib", "/opt/ur/lib"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandTilde(tt.in))
		})
	}
}
