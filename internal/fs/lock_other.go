//go:build !unix

package fs

import (
	"io"
	"os"
	"sync"
)

// Without flock, locks only exclude holders within this process.
var (
	localMu    sync.Mutex
	localLocks = map[string]bool{}
)

type localLock struct {
	name string
	f    *os.File
}

func lockFile(name string) (io.Closer, error) {
	localMu.Lock()
	defer localMu.Unlock()
	if localLocks[name] {
		return nil, ErrLocked
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	localLocks[name] = true
	return &localLock{name: name, f: f}, nil
}

func (l *localLock) Close() error {
	localMu.Lock()
	delete(localLocks, l.name)
	localMu.Unlock()
	return l.f.Close()
}
