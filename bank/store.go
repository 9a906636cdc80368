package bank

import (
	"errors"
	"os"

	commonerrors "github.com/gruntwork-io/go-commons/errors"
	"github.com/gruntwork-io/go-commons/files"
)

// ErrStoreNotFound is returned by a Store that has never been written.
var ErrStoreNotFound = errors.New("sequence store not found")

// Store reads and writes the whole persisted bank as one blob.
type Store interface {
	Read() ([]byte, error)
	Write(data []byte) error
}

// FileStore keeps the bank in a single file, overwritten in place on every write.
type FileStore struct {
	Path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Read() ([]byte, error) {
	if !files.FileExists(s.Path) {
		return nil, ErrStoreNotFound
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, commonerrors.WithStackTrace(err)
	}
	return data, nil
}

func (s *FileStore) Write(data []byte) error {
	if err := os.WriteFile(s.Path, data, 0644); err != nil {
		return commonerrors.WithStackTrace(err)
	}
	return nil
}

// MemoryStore keeps the bank in memory. ReadErr and WriteErr, when set, are returned instead of
// touching the data.
type MemoryStore struct {
	data    []byte
	written bool

	ReadErr  error
	WriteErr error
	Writes   int
}

// NewMemoryStore returns a store holding data. A nil data behaves as a store never written.
func NewMemoryStore(data []byte) *MemoryStore {
	s := &MemoryStore{}
	if data != nil {
		s.data = data
		s.written = true
	}
	return s
}

func (s *MemoryStore) Read() ([]byte, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	if !s.written {
		return nil, ErrStoreNotFound
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemoryStore) Write(data []byte) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.data = append([]byte(nil), data...)
	s.written = true
	s.Writes++
	return nil
}

// Bytes returns the last written data.
func (s *MemoryStore) Bytes() []byte {
	return append([]byte(nil), s.data...)
}
