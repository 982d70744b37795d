// Package store persists the ordered credential list as a JSON array.
// The list order is the order credentials are tried against the portal.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/zarlcorp/core/pkg/zfilesystem"
	"github.com/zarlcorp/zgate/internal/credential"
)

// FileName is the name of the credential file inside the data directory.
const FileName = "credentials.json"

// ErrIndex is returned when a position is outside the stored list.
var ErrIndex = errors.New("credential index out of range")

// Store reads and writes credentials.json on a filesystem.
type Store struct {
	fs zfilesystem.ReadWriteFileFS
}

// New returns a store rooted at fsys.
func New(fsys zfilesystem.ReadWriteFileFS) *Store {
	return &Store{fs: fsys}
}

// Load returns the stored credentials in order. A missing or malformed file
// yields an empty list; the problem is logged but never returned.
func (s *Store) Load() []credential.Credential {
	data, err := s.fs.ReadFile(FileName)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("load credentials", "err", err)
		}
		return []credential.Credential{}
	}

	var creds []credential.Credential
	if err := json.Unmarshal(data, &creds); err != nil {
		slog.Debug("discard malformed credentials file", "err", err)
		return []credential.Credential{}
	}

	// "null" decodes without error
	if creds == nil {
		return []credential.Credential{}
	}

	return creds
}

// Save replaces the stored list with creds in a single write.
func (s *Store) Save(creds []credential.Credential) error {
	if creds == nil {
		creds = []credential.Credential{}
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("save credentials: marshal: %w", err)
	}
	data = append(data, '\n')

	if err := s.fs.WriteFile(FileName, data, 0o600); err != nil {
		return fmt.Errorf("save credentials: write: %w", err)
	}

	return nil
}

// Add appends c to the stored list and returns the new list.
func (s *Store) Add(c credential.Credential) ([]credential.Credential, error) {
	creds := Append(s.Load(), c)
	if err := s.Save(creds); err != nil {
		return nil, fmt.Errorf("add credential: %w", err)
	}
	return creds, nil
}

// Remove deletes the credential at index i and returns the new list.
func (s *Store) Remove(i int) ([]credential.Credential, error) {
	creds, err := RemoveAt(s.Load(), i)
	if err != nil {
		return nil, fmt.Errorf("remove credential: %w", err)
	}
	if err := s.Save(creds); err != nil {
		return nil, fmt.Errorf("remove credential: %w", err)
	}
	return creds, nil
}

// Move relocates the credential at from to position to and returns the new
// list.
func (s *Store) Move(from, to int) ([]credential.Credential, error) {
	creds, err := MoveTo(s.Load(), from, to)
	if err != nil {
		return nil, fmt.Errorf("move credential: %w", err)
	}
	if err := s.Save(creds); err != nil {
		return nil, fmt.Errorf("move credential: %w", err)
	}
	return creds, nil
}

// Append returns a new list with c at the end. creds is not modified.
func Append(creds []credential.Credential, c credential.Credential) []credential.Credential {
	out := make([]credential.Credential, 0, len(creds)+1)
	out = append(out, creds...)
	return append(out, c)
}

// RemoveAt returns a new list without the element at i.
func RemoveAt(creds []credential.Credential, i int) ([]credential.Credential, error) {
	if i < 0 || i >= len(creds) {
		return nil, fmt.Errorf("%w: %d", ErrIndex, i)
	}

	out := make([]credential.Credential, 0, len(creds)-1)
	out = append(out, creds[:i]...)
	return append(out, creds[i+1:]...), nil
}

// MoveTo returns a new list with the element at from placed at to.
func MoveTo(creds []credential.Credential, from, to int) ([]credential.Credential, error) {
	if from < 0 || from >= len(creds) {
		return nil, fmt.Errorf("%w: %d", ErrIndex, from)
	}
	if to < 0 || to >= len(creds) {
		return nil, fmt.Errorf("%w: %d", ErrIndex, to)
	}

	c := creds[from]
	out, _ := RemoveAt(creds, from)

	out = append(out, credential.Credential{})
	copy(out[to+1:], out[to:])
	out[to] = c
	return out, nil
}
