package lockfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// lockfilePermissions is the file mode of written lock files.
const lockfilePermissions = 0o600

// ErrUnsupportedVersion is returned when a lock file was written by a newer
// format.
var ErrUnsupportedVersion = errors.New("unsupported lock file version")

// ReadFile reads and parses the lock file at path.
func ReadFile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}
	return Parse(data)
}

// Parse parses lock file JSON.
func Parse(data []byte) (*Lockfile, error) {
	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse lock file JSON: %w", err)
	}
	if lf.Version < 1 || lf.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, lf.Version)
	}

	if lf.Modules == nil {
		lf.Modules = make(map[string]string)
	}
	if lf.Replacements == nil {
		lf.Replacements = make(map[string]string)
	}
	if lf.Rejected == nil {
		lf.Rejected = make(map[string]string)
	}
	return &lf, nil
}

// WriteFile writes the lock file to path.
func (l *Lockfile) WriteFile(path string) error {
	data, err := l.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, lockfilePermissions)
}

// WriteTo writes the lock file to w.
func (l *Lockfile) WriteTo(w io.Writer) (int64, error) {
	data, err := l.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Marshal serializes the lock file as indented JSON. Map keys are emitted in
// sorted order.
func (l *Lockfile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Exists reports whether a file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
