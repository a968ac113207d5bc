// Package status maintains the externally visible status snapshot.
package status

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is one batch of status keys to merge into the snapshot.
type Fields map[string]any

// Reporter persists the status file consumed by external viewers and by the
// lifecycle controller to infer liveness. Updates merge on top of whatever
// is on disk, so correctness does not depend on process lifetime.
type Reporter struct {
	path string
}

// NewReporter creates a reporter writing to path.
func NewReporter(path string) *Reporter {
	return &Reporter{path: path}
}

// Path returns the status file location.
func (r *Reporter) Path() string { return r.path }

// Update merges fields into the current snapshot and writes the result
// atomically (temp file + rename), so readers never observe a partial file.
// New keys overwrite same-named old keys; unrelated keys persist.
func (r *Reporter) Update(fields Fields) error {
	base := r.read()
	for k, v := range fields {
		base[k] = v
	}

	data, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return fmt.Errorf("status: marshal: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("status: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("status: rename %s: %w", r.path, err)
	}
	return nil
}

// MustUpdate is Update with the IOError policy applied: log and swallow.
func (r *Reporter) MustUpdate(fields Fields) {
	if err := r.Update(fields); err != nil {
		logrus.Warnf("%v", err)
	}
}

// read returns the current snapshot, or an empty map when the file is
// absent or corrupt.
func (r *Reporter) read() map[string]any {
	base := make(map[string]any)
	data, err := os.ReadFile(r.path)
	if err != nil {
		return base
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return make(map[string]any)
	}
	return base
}
