package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// ErrSnapshotNotFound is returned when a snapshot doesn't exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// The standard-library-compatible config matches document keys
// case-insensitively, which canonicalizes snapshots written with
// differently cased keys.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store manages snapshot persistence.
type Store struct {
	Dir string // Base directory for snapshots
}

// NewStore creates a store with the given directory. An empty dir means the
// current working directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{Dir: dir}
}

// ResolveDir returns the snapshot directory from env var or the default.
func ResolveDir(environ []string) string {
	for _, env := range environ {
		if strings.HasPrefix(env, "MM_SNAPSHOT_DIR=") {
			return strings.TrimPrefix(env, "MM_SNAPSHOT_DIR=")
		}
	}
	return "."
}

// Save stores a document and returns its location. The location is derived
// from the document's filename stem and recorded in the payload itself
// before writing. The write is atomic: a temp file in the same directory is
// renamed over the final path, so a crash mid-write never leaves a corrupt
// snapshot behind.
func (s *Store) Save(doc Document) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", err
	}

	path := s.Path(doc.Filename)
	doc.Location = path

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.Dir, ".snapshot-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return path, nil
}

// Load reads a snapshot document from location.
func (s *Store) Load(location string) (Document, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.Wrap(ErrSnapshotNotFound, location)
		}
		return Document{}, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, errors.Wrapf(err, "parse snapshot %q", location)
	}

	return doc, nil
}

// List returns all stored snapshots as summaries.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, err
	}

	var summaries []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.Dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue // Skip unreadable files
		}

		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			continue // Skip invalid JSON
		}

		summaries = append(summaries, Summary{
			Location:    path,
			ModelName:   doc.ModelName,
			SolveCount:  doc.SolveCount,
			DateCreated: doc.DateCreated,
		})
	}

	return summaries, nil
}

// Prune removes snapshots older than the given duration.
// Returns the number of snapshots deleted.
func (s *Store) Prune(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.Dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}

		if doc.DateCreated.Before(cutoff) {
			if err := os.Remove(path); err == nil {
				deleted++
			}
		}
	}

	return deleted, nil
}

// Exists checks if a snapshot exists at the location a stem derives to.
func (s *Store) Exists(stem string) bool {
	_, err := os.Stat(s.Path(stem))
	return err == nil
}

// Path returns the snapshot location for a filename stem.
func (s *Store) Path(stem string) string {
	return filepath.Join(s.Dir, stem+".json")
}
