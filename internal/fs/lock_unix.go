//go:build unix

package fs

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

type flock struct {
	f *os.File
}

func lockFile(name string) (io.Closer, error) {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, err
	}
	// The file may have been unlinked by its previous holder between our
	// open and flock; a lock on the orphaned inode guards nothing.
	if !samePath(f, name) {
		l := &flock{f: f}
		_ = l.Close()
		return nil, ErrLocked
	}
	return &flock{f: f}, nil
}

func (l *flock) Close() error {
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func samePath(f *os.File, name string) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	ni, err := os.Stat(name)
	if err != nil {
		return false
	}
	return os.SameFile(fi, ni)
}
