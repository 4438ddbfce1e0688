package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands ~ in path with user's home directory, but only if path begins with ~ or /~
// Otherwise, returns path unchanged
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") && !strings.HasPrefix(path, "/~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand user home directory: %w", err)
	}
	_, rest, found := strings.Cut(path, "~")
	if !found {
		panic(errors.New("should have checked for ~ before"))
	}
	return filepath.Join(home, rest), nil
}

func ToTrimmedLower(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return s
}

func ParseAsList(list, separator string, trim bool) []string {
	ret := make([]string, 0)

	for _, entry := range strings.Split(list, separator) {
		if trim {
			entry = strings.TrimSpace(entry)
		}
		if entry != "" {
			ret = append(ret, entry)
		}
	}
	return ret
}

// EncodeJSONWithoutEscapeHTML encodes v to JSON, keeping characters like
// & and < literal. Firmware download URLs contain query separators that
// must survive encoding unmangled.
func EncodeJSONWithoutEscapeHTML(v any) ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	err := encoder.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("unexpected encoding error %w", err)
	}
	return buffer.Bytes(), nil
}

// AtomicWriteFile writes data to the named file quasi-atomically, creating it if necessary.
// On unix-like systems, the function uses github.com/google/renameio.
// On Windows, it has a simpler implementation using os.Rename(), which is believed to be atomic on NTFS,
// but there is no hard guarantee from Microsoft on that.
func AtomicWriteFile(name string, data []byte, perm os.FileMode) error {
	return atomicWriteFile(name, data, perm)
}
