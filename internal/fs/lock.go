package fs

import "errors"

// ErrLocked is returned by Lock when another holder owns the lock.
var ErrLocked = errors.New("fs: file is locked")
