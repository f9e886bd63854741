package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeneratedImagesOrder(t *testing.T) {
	paths, err := ParseGeneratedImages("foo\nGenerated images: ['/a/x.png', '/a/y.png']\nbar")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/x.png", "/a/y.png"}, paths)
}

func TestParseGeneratedImagesNoMarker(t *testing.T) {
	_, err := ParseGeneratedImages("loading model\nstep 1/20\ndone\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoResults))
	assert.Equal(t, "No images generated", err.Error())
}

func TestParseGeneratedImagesEmptyList(t *testing.T) {
	_, err := ParseGeneratedImages("Generated images: []\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoResults))
}

func TestParseGeneratedImagesLastMarkerWins(t *testing.T) {
	out := "Generated images: ['/old.png']\nGenerated images: ['/new_0.png', '/new_1.png']\n"
	paths, err := ParseGeneratedImages(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"/new_0.png", "/new_1.png"}, paths)
}

func TestParseGeneratedImagesTolerance(t *testing.T) {
	cases := map[string]struct {
		stdout string
		want   []string
	}{
		"crlf line endings": {
			stdout: "warmup\r\nGenerated images: ['/out/a.png']\r\n",
			want:   []string{"/out/a.png"},
		},
		"marker mid line": {
			stdout: "[ootd] Generated images: ['/out/a.png']",
			want:   []string{"/out/a.png"},
		},
		"double quoted repr": {
			stdout: `Generated images: ["/out/it's.png"]`,
			want:   []string{"/out/its.png"},
		},
		"relative paths": {
			stdout: "Generated images: ['./images_output/out_0.png', './images_output/out_1.png']",
			want:   []string{"./images_output/out_0.png", "./images_output/out_1.png"},
		},
		"single path without brackets": {
			stdout: "Generated images: /out/a.png",
			want:   []string{"/out/a.png"},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseGeneratedImages(tc.stdout)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// Paths with ", " split into several items; the format has no escape for it.
func TestParseGeneratedImagesAmbiguousSeparator(t *testing.T) {
	got, err := ParseGeneratedImages(FormatGeneratedImages([]string{"/out/a, b.png"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"/out/a", "b.png"}, got)
}

func TestParseGeneratedImagesSpacesInPath(t *testing.T) {
	want := []string{"/out/my shirt.png", "/out/other one.png"}
	got, err := ParseGeneratedImages(FormatGeneratedImages(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func FuzzParseGeneratedImages(f *testing.F) {
	f.Add("/a/x.png", "/a/y.png")
	f.Add("/tmp/with space.png", "rel/out_1.jpg")
	f.Add("/a, b.png", "c'd.png")
	f.Add("", "[]")
	f.Fuzz(func(t *testing.T, a, b string) {
		stdout := "noise\n" + FormatGeneratedImages([]string{a, b}) + "\ntrailer"
		got, err := ParseGeneratedImages(stdout)
		if err != nil {
			if !errors.Is(err, ErrNoResults) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}
		for _, p := range got {
			if p == "" {
				t.Fatalf("empty path returned for %q", stdout)
			}
			if strings.Contains(p, "'") {
				t.Fatalf("quote survived in %q", p)
			}
		}
		if expressible(a) && expressible(b) {
			assert.Equal(t, []string{a, b}, got)
		}
	})
}

// expressible reports whether p survives the marker format unchanged.
func expressible(p string) bool {
	if p == "" || strings.TrimSpace(p) != p {
		return false
	}
	if strings.ContainsAny(p, "'\"[]\n\r") || strings.Contains(p, ", ") {
		return false
	}
	return true
}
