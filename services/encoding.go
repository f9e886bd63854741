package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// EncodeFileBase64 reads the whole file and returns its standard base64 form.
func EncodeFileBase64(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// resolveResultPath makes tool-relative paths usable from the server's cwd.
func resolveResultPath(workDir, path string) string {
	if filepath.IsAbs(path) || workDir == "" {
		return path
	}
	return filepath.Join(workDir, path)
}

// encodeResults encodes each path in order. In strict mode any missing or
// unreadable file fails the whole batch; otherwise such files are returned in
// skipped and left out of images.
func encodeResults(paths []string, workDir string, strict bool) (images []string, skipped []string, err error) {
	images = make([]string, 0, len(paths))
	for _, p := range paths {
		resolved := resolveResultPath(workDir, p)
		encoded, readErr := EncodeFileBase64(resolved)
		if readErr != nil {
			if strict {
				if errors.Is(readErr, os.ErrNotExist) {
					return nil, nil, wrap(ErrEncoding, fmt.Sprintf("Image file not found: %s", p), nil)
				}
				return nil, nil, wrap(ErrEncoding, fmt.Sprintf("read image %s", p), readErr)
			}
			skipped = append(skipped, p)
			continue
		}
		images = append(images, encoded)
	}
	return images, skipped, nil
}
