package session

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fitfinder/fitfinder/pkg/photo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func facefinder(t *testing.T) *photo.PersonHinter {
	t.Helper()
	out, err := exec.Command("go", "list", "-m", "-f", "{{.Dir}}", "github.com/esimov/pigo").Output()
	if err != nil {
		t.Skipf("pigo module not found: %v", err)
	}
	path := filepath.Join(strings.TrimSpace(string(out)), "cascade", "facefinder")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("pigo facefinder cascade not found: %v", err)
	}
	h, err := photo.LoadPersonHinter(path)
	require.NoError(t, err)
	return h
}

func TestHint_NoPersonFound(t *testing.T) {
	s := New(&MockDetector{}, WithPersonHinter(facefinder(t)))

	img, err := s.Load(context.Background(), pngBytes(t, 640, 480), "image/png", photo.SourceUpload, "empty.png")
	require.NoError(t, err)

	assert.Zero(t, img.Faces)
	assert.Equal(t, MsgNoPerson, s.Hint())
}

func TestHint_SetPersonHinter(t *testing.T) {
	s := New(&MockDetector{})
	s.SetPersonHinter(facefinder(t))

	_, err := s.Load(context.Background(), pngBytes(t, 320, 240), "image/png", photo.SourceUpload, "empty.png")
	require.NoError(t, err)
	assert.Equal(t, MsgNoPerson, s.Hint())

	s.SetPersonHinter(nil)
	_, err = s.Load(context.Background(), pngBytes(t, 320, 240), "image/png", photo.SourceUpload, "empty.png")
	require.NoError(t, err)
	assert.Empty(t, s.Hint(), "hint off")
}

func TestHint_FacesFound(t *testing.T) {
	tests := []struct {
		name  string
		faces int
		want  string
	}{
		{"hint off", -1, ""},
		{"nobody", 0, MsgNoPerson},
		{"one person", 1, ""},
		{"group", 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&MockDetector{})
			s.image = &photo.Image{Faces: tt.faces}
			assert.Equal(t, tt.want, s.Hint())
		})
	}
}

func TestHint_ClearedByModeSwitch(t *testing.T) {
	s := New(&MockDetector{})
	s.image = &photo.Image{Faces: 0}
	require.Equal(t, MsgNoPerson, s.Hint())

	s.SetMode(ModeCamera)
	assert.Empty(t, s.Hint())
}
