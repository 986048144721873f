package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kshetline/asteroid-comet-data-generator/internal/horizons"
)

// Store persists fetched element sets as one JSON file per body under a
// base directory. Writes go through a temp file and rename so a crashed
// run never leaves a truncated data file behind.
type Store struct {
	dir    string
	logger zerolog.Logger
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: output directory not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &Store{
		dir:    dir,
		logger: log.With().Str("component", "storage").Logger(),
	}, nil
}

// Dir returns the store's base directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the element set for its body, merging with any previously
// saved records for the same body.
func (s *Store) Save(set *horizons.ElementSet) error {
	if set == nil || set.Body.ID == "" {
		return fmt.Errorf("storage: element set has no body id")
	}

	if existing, err := s.Load(set.Body.ID); err == nil {
		set = horizons.Merge(existing, set)
	} else if !os.IsNotExist(err) {
		return err
	}

	path := s.pathFor(set.Body.ID)
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", set.Body.ID, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("storage: rename %s: %w", path, err)
	}

	s.logger.Info().
		Str("body", set.Body.ID).
		Int("records", len(set.Records)).
		Str("path", path).
		Msg("Element set saved")
	return nil
}

// Load reads the saved element set for a body. The error satisfies
// os.IsNotExist when nothing has been saved yet.
func (s *Store) Load(bodyID string) (*horizons.ElementSet, error) {
	data, err := os.ReadFile(s.pathFor(bodyID))
	if err != nil {
		return nil, err
	}
	var set horizons.ElementSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", bodyID, err)
	}
	return &set, nil
}

// List returns the body IDs with saved element sets.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", s.dir, err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, decodeID(strings.TrimSuffix(name, ".json")))
	}
	return ids, nil
}

func (s *Store) pathFor(bodyID string) string {
	return filepath.Join(s.dir, encodeID(bodyID)+".json")
}

// Body designations may contain slashes and spaces ("C/2023 A3"), which
// have no business in file names.
func encodeID(id string) string {
	r := strings.NewReplacer("/", "_", " ", "-")
	return r.Replace(id)
}

func decodeID(name string) string {
	r := strings.NewReplacer("_", "/", "-", " ")
	return r.Replace(name)
}
