package services

import (
	"strings"
)

// ResultMarker prefixes the single stdout line on which the try-on tool
// announces its output files.
const ResultMarker = "Generated images:"

// ParseGeneratedImages recovers the result paths from the tool's stdout.
//
// The tool prints a Python list repr after the marker:
//
//	Generated images: ['/out/a.png', '/out/b.png']
//
// The last line containing the marker wins. The text after the marker is
// trimmed, stripped of leading and trailing '[' and ']', has every single
// quote removed and is split on ", ". Items are trimmed of spaces and
// surrounding double quotes; empty items are dropped. Paths that contain
// ", " or a single quote cannot round-trip through this format.
func ParseGeneratedImages(stdout string) ([]string, error) {
	var listing string
	found := false
	for _, line := range strings.Split(stdout, "\n") {
		idx := strings.Index(line, ResultMarker)
		if idx < 0 {
			continue
		}
		listing = line[idx+len(ResultMarker):]
		found = true
	}
	if !found {
		return nil, wrap(ErrNoResults, "No images generated", nil)
	}

	listing = strings.Trim(strings.TrimSpace(listing), "[]")
	listing = strings.ReplaceAll(listing, "'", "")

	var paths []string
	for _, item := range strings.Split(listing, ", ") {
		item = strings.Trim(strings.TrimSpace(item), `"`)
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		paths = append(paths, item)
	}
	if len(paths) == 0 {
		return nil, wrap(ErrNoResults, "No images generated", nil)
	}
	return paths, nil
}

// FormatGeneratedImages renders paths the way the tool prints them.
func FormatGeneratedImages(paths []string) string {
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = "'" + p + "'"
	}
	return ResultMarker + " [" + strings.Join(quoted, ", ") + "]"
}
