package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spoolgate/backend/internal/domain/printing"
	"github.com/spoolgate/backend/internal/domain/shared"
)

// DefaultMaxFileSize is the upload ceiling (50 MiB)
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

// Reserved entries inside the storage root that are never swept or served.
const (
	PlaceholderFile = ".gitkeep"
	SweepLockFile   = ".sweep.lock"
	tempFilePattern = ".upload-*"
)

// DocumentStore defines the lifecycle operations on stored documents
type DocumentStore interface {
	// Store writes an upload and returns its handle
	Store(ctx context.Context, req *StoreRequest) (*printing.DocumentHandle, error)
	// Lookup rebuilds the handle for a stored document
	Lookup(ctx context.Context, id string) (*printing.DocumentHandle, error)
	// Open opens a stored document for reading
	Open(ctx context.Context, id string) (*Document, error)
	// Path returns the sandboxed absolute path of a stored document
	Path(ctx context.Context, id string) (string, error)
	// Delete removes a stored document; deleting a missing document succeeds
	Delete(ctx context.Context, id string) error
	// Sweep removes documents older than maxAge
	Sweep(ctx context.Context, maxAge time.Duration) (*SweepResult, error)
}

// StoreRequest contains the parameters for storing an upload
type StoreRequest struct {
	// Content is the raw document body
	Content io.Reader
	// Size is the declared length in bytes, or -1 when unknown
	Size int64
	// OriginalName is the client-supplied file name
	OriginalName string
	// MediaType is the client-declared media type
	MediaType string
}

// Document is an opened stored document. The caller must Close it.
type Document struct {
	printing.DocumentHandle
	io.ReadSeekCloser
}

// FileSystemStorageConfig contains configuration for file system storage
type FileSystemStorageConfig struct {
	// Root is the private directory uploads are kept in
	Root string
	// MaxFileSize is the upload ceiling in bytes (default 50 MiB)
	MaxFileSize int64
	// Logger for operations
	Logger *zap.Logger
}

// FileSystemStorage keeps documents as flat files under a single root
type FileSystemStorage struct {
	root        string
	maxFileSize int64
	logger      *zap.Logger
	now         func() time.Time
	removeAll   func(path string) error
}

// NewFileSystemStorage creates the storage root if needed and returns a store over it
func NewFileSystemStorage(config *FileSystemStorageConfig) (*FileSystemStorage, error) {
	if config == nil {
		config = &FileSystemStorageConfig{}
	}

	root := config.Root
	if root == "" {
		root = "./temp"
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", root, err)
	}
	canonRoot, err := canonicalize(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory %s: %w", root, err)
	}

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FileSystemStorage{
		root:        canonRoot,
		maxFileSize: maxSize,
		logger:      logger,
		now:         time.Now,
		removeAll:   os.RemoveAll,
	}, nil
}

// Root returns the canonical storage root
func (s *FileSystemStorage) Root() string {
	return s.root
}

// MaxFileSize returns the upload ceiling in bytes
func (s *FileSystemStorage) MaxFileSize() int64 {
	return s.maxFileSize
}

// Store validates the upload, then writes it to a temporary file that is
// renamed into place only once the full body has been received.
func (s *FileSystemStorage) Store(ctx context.Context, req *StoreRequest) (*printing.DocumentHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil || req.Content == nil {
		return nil, printing.NewValidationError("no file provided")
	}
	if !printing.IsAcceptedMediaType(req.MediaType) {
		return nil, shared.NewDomainError(printing.CodeUnsupportedType,
			fmt.Sprintf("File type not supported: %q. Accepted types: %s",
				req.MediaType, strings.Join(printing.AcceptedMediaTypes(), ", ")))
	}
	if req.Size > s.maxFileSize {
		return nil, s.tooLarge()
	}

	now := s.now()
	name, err := generateFileName(req.OriginalName, now)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.root, tempFilePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, io.LimitReader(req.Content, s.maxFileSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if written > s.maxFileSize {
		return nil, s.tooLarge()
	}

	finalPath := filepath.Join(s.root, name)
	if err := os.Rename(tmpName, finalPath); err != nil {
		return nil, fmt.Errorf("failed to commit upload: %w", err)
	}
	committed = true

	s.logger.Info("document stored",
		zap.String("handle", name),
		zap.String("original_name", req.OriginalName),
		zap.Int64("size", written),
		zap.String("media_type", req.MediaType))

	return &printing.DocumentHandle{
		ID:          name,
		DisplayName: filepath.Base(req.OriginalName),
		Size:        written,
		MediaType:   req.MediaType,
		CreatedAt:   now,
	}, nil
}

// Path resolves id through the sandbox and confirms a regular file exists there
func (s *FileSystemStorage) Path(ctx context.Context, id string) (string, error) {
	path, _, err := s.stat(ctx, id)
	return path, err
}

// Lookup rebuilds the handle for id from the file on disk
func (s *FileSystemStorage) Lookup(ctx context.Context, id string) (*printing.DocumentHandle, error) {
	path, info, err := s.stat(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.handleFor(path, info), nil
}

// Open re-validates id through the sandbox and opens it for reading.
// A document that has been swept or deleted yields NOT_FOUND.
func (s *FileSystemStorage) Open(ctx context.Context, id string) (*Document, error) {
	path, info, err := s.stat(ctx, id)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("failed to open document: %w", err)
	}

	return &Document{
		DocumentHandle: *s.handleFor(path, info),
		ReadSeekCloser: f,
	}, nil
}

// Delete removes the document. A document that is already gone is not an error.
func (s *FileSystemStorage) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(id)
	if err != nil {
		if errors.Is(err, printing.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}

	s.logger.Info("document deleted", zap.String("handle", id))
	return nil
}

// resolve maps id to an absolute path under the root. The root itself and
// reserved entries are never valid documents.
func (s *FileSystemStorage) resolve(id string) (string, error) {
	path, err := Resolve(id, s.root)
	if err != nil {
		s.logger.Warn("path escape attempt blocked", zap.String("handle", id), zap.Error(err))
		return "", err
	}
	if path == s.root || isReserved(filepath.Base(path)) {
		return "", notFound(id)
	}
	return path, nil
}

func (s *FileSystemStorage) stat(ctx context.Context, id string) (string, fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	path, err := s.resolve(id)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, notFound(id)
		}
		return "", nil, fmt.Errorf("failed to stat document: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", nil, notFound(id)
	}
	return path, info, nil
}

func (s *FileSystemStorage) handleFor(path string, info fs.FileInfo) *printing.DocumentHandle {
	id, err := filepath.Rel(s.root, path)
	if err != nil {
		id = filepath.Base(path)
	}
	id = filepath.ToSlash(id)
	return &printing.DocumentHandle{
		ID:          id,
		DisplayName: displayNameFromStored(filepath.Base(path)),
		Size:        info.Size(),
		MediaType:   mediaTypeFromName(path),
		CreatedAt:   info.ModTime(),
	}
}

func (s *FileSystemStorage) tooLarge() error {
	return shared.NewDomainError(printing.CodeFileTooLarge,
		fmt.Sprintf("File size exceeds maximum limit of %d bytes", s.maxFileSize))
}

func notFound(id string) error {
	return shared.NewDomainError(printing.CodeNotFound, fmt.Sprintf("Document %s not found", id))
}

func isReserved(name string) bool {
	return name == PlaceholderFile || name == SweepLockFile
}

// Ensure FileSystemStorage implements DocumentStore
var _ DocumentStore = (*FileSystemStorage)(nil)
