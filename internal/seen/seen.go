// Package seen persists the set of already-alerted item identifiers.
package seen

import (
	"bufio"
	"os"

	"github.com/sirupsen/logrus"
)

// Store is the seen-uid set backed by an append-only flat log, one uid per
// line. It grows without bound and is never compacted; a uid present in the
// log is never alerted again, across restarts.
type Store struct {
	path string
	uids map[string]struct{}
}

// Load reads the seen log at path. A missing or unreadable file yields an
// empty store; the log is advisory state, never a reason to fail a cycle.
func Load(path string) *Store {
	s := &Store{path: path, uids: make(map[string]struct{})}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("seen: open %s: %v", path, err)
		}
		return s
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			s.uids[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		logrus.Warnf("seen: read %s: %v", path, err)
	}
	return s
}

// Has reports whether uid was already seen.
func (s *Store) Has(uid string) bool {
	_, ok := s.uids[uid]
	return ok
}

// Empty reports whether the set held nothing when loaded plus marked since.
func (s *Store) Empty() bool { return len(s.uids) == 0 }

// Len returns the number of distinct uids.
func (s *Store) Len() int { return len(s.uids) }

// Mark records uid as seen, appending it to the log. Idempotent: a uid is
// written at most once. Write failures are logged and swallowed so that a
// full disk cannot stop the poll loop.
func (s *Store) Mark(uid string) {
	if uid == "" {
		return
	}
	if _, ok := s.uids[uid]; ok {
		return
	}
	s.uids[uid] = struct{}{}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logrus.Warnf("seen: append %s: %v", s.path, err)
		return
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(uid + "\n"); err != nil {
		logrus.Warnf("seen: write %s: %v", s.path, err)
	}
}
