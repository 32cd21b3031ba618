package geocache

import (
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/geocache/blobstore"
	"github.com/hupe1980/geocache/cachefile"
	"github.com/hupe1980/geocache/internal/fs"
)

var (
	// ErrNotFound is returned when a node or feature does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned by operations on a closed Cache.
	ErrClosed = errors.New("cache is closed")

	// ErrLocked is returned when another writer holds the node.
	ErrLocked = errors.New("node is locked by another writer")

	// ErrStaleClientVersion is returned by Open with WithCurrentVersionOnly
	// when the file was written by a different client version.
	ErrStaleClientVersion = errors.New("stale client version")

	// ErrNotTerminal is returned by Open with WithTerminalOnly when the file
	// is not the last page of its query.
	ErrNotTerminal = errors.New("cache file is not terminal")

	// ErrNoRemote is returned by remote operations when no remote store is configured.
	ErrNoRemote = errors.New("no remote store configured")

	// ErrCompressedRemote is returned by OpenRemote when published nodes
	// are compressed and cannot be read in place.
	ErrCompressedRemote = errors.New("remote nodes are compressed")
)

// ErrInvalidNode indicates node coordinates that cannot be stored.
type ErrInvalidNode struct {
	Level int32
	Index int32
}

func (e *ErrInvalidNode) Error() string {
	return fmt.Sprintf("invalid node %d/%d", e.Level, e.Index)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, cachefile.ErrNotFound) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, fs.ErrLocked) {
		return fmt.Errorf("%w: %w", ErrLocked, err)
	}

	return err
}
