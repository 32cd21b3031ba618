package geocache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/geocache/blobstore"
	"github.com/hupe1980/geocache/cachefile"
	"github.com/hupe1980/geocache/internal/cache"
	"github.com/hupe1980/geocache/internal/compress"
	"github.com/hupe1980/geocache/internal/fs"
	"github.com/hupe1980/geocache/model"
	"github.com/hupe1980/geocache/resource"
)

const (
	swapDir     = ".swap"
	swapPattern = "cache-*.swap"
	lockSuffix  = ".lock"
)

// NodeID addresses one cache file by its level and index.
type NodeID struct {
	Level int32
	Index int32
}

// String returns "level/index", the node's relative path and remote key.
func (id NodeID) String() string {
	return strconv.FormatInt(int64(id.Level), 10) + "/" + strconv.FormatInt(int64(id.Index), 10)
}

func (id NodeID) validate() error {
	if id.Level < 0 || id.Index < 0 {
		return &ErrInvalidNode{Level: id.Level, Index: id.Index}
	}
	return nil
}

// ParseNodeID parses the "level/index" form returned by String.
func ParseNodeID(s string) (NodeID, error) {
	levelStr, indexStr, ok := strings.Cut(s, "/")
	if !ok {
		return NodeID{}, fmt.Errorf("invalid node id %q", s)
	}
	level, err := strconv.ParseInt(levelStr, 10, 32)
	if err != nil {
		return NodeID{}, fmt.Errorf("invalid node id %q: %w", s, err)
	}
	index, err := strconv.ParseInt(indexStr, 10, 32)
	if err != nil {
		return NodeID{}, fmt.Errorf("invalid node id %q: %w", s, err)
	}
	id := NodeID{Level: int32(level), Index: int32(index)}
	return id, id.validate()
}

// Cache stores one snapshot file per node under root/<level>/<index>.
//
// Writes of the same node are serialized: callers within the process wait
// for each other and each performs its own write, and an advisory lock file
// keeps other processes out. Cache is safe for concurrent use.
type Cache struct {
	root   string
	opts   options
	remote blobstore.BlobStore
	blocks cache.BlockCache
	nodes  nodeLocks
	closed atomic.Bool
}

// nodeLocks hands out one mutex per node that is being written. Entries
// are dropped once no caller holds or waits for them.
type nodeLocks struct {
	mu    sync.Mutex
	locks map[NodeID]*nodeLock
}

type nodeLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until the caller owns node id and returns the release func.
func (l *nodeLocks) lock(id NodeID) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[NodeID]*nodeLock)
	}
	nl, ok := l.locks[id]
	if !ok {
		nl = &nodeLock{}
		l.locks[id] = nl
	}
	nl.refs++
	l.mu.Unlock()

	nl.mu.Lock()
	return func() {
		nl.mu.Unlock()
		l.mu.Lock()
		if nl.refs--; nl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *nodeLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// New opens or creates a cache rooted at root. Swap files left behind by an
// interrupted write are removed.
func New(root string, optFns ...Option) (*Cache, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	if err := o.fsys.MkdirAll(filepath.Join(root, swapDir), 0o755); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}

	c := &Cache{
		root:   root,
		opts:   o,
		remote: o.remote,
	}
	if o.remote != nil && o.blockCacheBytes > 0 {
		c.blocks = cache.NewLRUBlockCache(o.blockCacheBytes, o.resources)
		c.remote = blobstore.NewCachingStore(o.remote, c.blocks, o.blockSize)
	}

	if err := c.cleanSwap(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) cleanSwap() error {
	dir := filepath.Join(c.root, swapDir)
	entries, err := c.opts.fsys.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if ok, _ := filepath.Match(swapPattern, e.Name()); ok {
			if err := c.opts.fsys.Remove(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
			c.opts.logger.WithPath(e.Name()).Warn("removed stale swap file")
		}
	}
	return nil
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// Path returns the local file path of a node.
func (c *Cache) Path(id NodeID) string {
	return filepath.Join(c.root, filepath.FromSlash(id.String()))
}

// Write snapshots the features src returns for q into node id, replacing any
// previous file. The returned metadata is the header that was written.
func (c *Cache) Write(ctx context.Context, id NodeID, src model.FeatureStore, q model.FeatureQuery) (*cachefile.Metadata, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if err := id.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	md, err := c.replace(id, func(f fs.File) (*cachefile.Metadata, error) {
		return c.writeSnapshot(ctx, f, id, src, q)
	})

	if err == nil {
		c.opts.metricsCollector.RecordWrite(md.NumFeatures, md.NumFeatureSets, time.Since(start), nil)
	} else {
		c.opts.metricsCollector.RecordWrite(0, 0, time.Since(start), err)
	}
	c.opts.logger.LogWrite(ctx, id, md, err)

	return md, translateError(err)
}

func (c *Cache) writeSnapshot(ctx context.Context, f fs.File, id NodeID, src model.FeatureStore, q model.FeatureQuery) (*cachefile.Metadata, error) {
	w := resource.NewWriteSeeker(ctx, f, c.opts.resources)
	res, err := cachefile.WriteFile(ctx, w, src, c.opts.clientVersion, cachefile.WriteParams{
		Order:     c.opts.order,
		Level:     id.Level,
		Index:     id.Index,
		Timestamp: c.opts.now().UnixMilli(),
		Query:     q,
		Resources: c.opts.resources,
	})
	if err != nil {
		return nil, err
	}
	return res.Metadata, nil
}

// replace writes node id through fill while holding the node in this process
// and its lock file against other processes. With atomic
// writes fill targets a swap file that is renamed over the node once it is
// complete and synced; otherwise the node file is truncated and written in
// place. A failed fill never leaves a partial node behind.
func (c *Cache) replace(id NodeID, fill func(fs.File) (*cachefile.Metadata, error)) (*cachefile.Metadata, error) {
	fsys := c.opts.fsys
	path := c.Path(id)
	dir := filepath.Dir(path)

	unlock := c.nodes.lock(id)
	defer unlock()

	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	lock, err := fsys.Lock(path + lockSuffix)
	if err != nil {
		return nil, err
	}
	defer lock.Close()

	var f fs.File
	if c.opts.atomicWrites {
		f, err = fsys.CreateTemp(filepath.Join(c.root, swapDir), swapPattern)
	} else {
		f, err = fsys.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	}
	if err != nil {
		return nil, err
	}

	md, err := fill(f)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && c.opts.atomicWrites {
		err = fsys.Rename(f.Name(), path)
	}
	if err != nil {
		_ = fsys.Remove(f.Name())
		return nil, err
	}

	if c.opts.atomicWrites {
		if err := fs.SyncDir(fsys, dir); err != nil {
			return nil, err
		}
	}
	return md, nil
}

// Open opens node id for reading. ctx governs the node's reads until it is
// closed.
func (c *Cache) Open(ctx context.Context, id NodeID, optFns ...OpenOption) (*Node, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	n, err := c.open(ctx, id, optFns)
	c.opts.metricsCollector.RecordOpen(time.Since(start), err)
	c.opts.logger.LogOpen(ctx, id, err)

	return n, translateError(err)
}

func (c *Cache) open(ctx context.Context, id NodeID, optFns []OpenOption) (*Node, error) {
	if err := id.validate(); err != nil {
		return nil, err
	}
	f, err := c.opts.fsys.OpenFile(c.Path(id), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return c.newNode(id, resource.NewReadSeeker(ctx, f, c.opts.resources), f, optFns)
}

func (c *Cache) newNode(id NodeID, rs io.ReadSeeker, closer io.Closer, optFns []OpenOption) (*Node, error) {
	var oo openOptions
	for _, fn := range optFns {
		fn(&oo)
	}

	n, err := c.decodeNode(id, rs, oo)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	n.closer = closer
	return n, nil
}

func (c *Cache) decodeNode(id NodeID, rs io.ReadSeeker, oo openOptions) (*Node, error) {
	cf, err := cachefile.OpenFile(rs)
	if err != nil {
		return nil, err
	}
	md, err := cf.Metadata()
	if err != nil {
		return nil, err
	}
	if md.Level != id.Level || md.Index != id.Index {
		return nil, fmt.Errorf("%w: node %s holds %d/%d", cachefile.ErrCorrupt, id, md.Level, md.Index)
	}
	if oo.terminalOnly && !md.Terminal {
		return nil, ErrNotTerminal
	}
	stale := md.ClientVersion != c.opts.clientVersion
	if oo.currentVersionOnly && stale {
		return nil, fmt.Errorf("%w: file %d, client %d", ErrStaleClientVersion, md.ClientVersion, c.opts.clientVersion)
	}
	return &Node{
		id:      id,
		file:    cf,
		md:      md,
		stale:   stale,
		metrics: c.opts.metricsCollector,
	}, nil
}

// Remove deletes the local file of node id together with its lock file.
func (c *Cache) Remove(ctx context.Context, id NodeID) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := id.validate(); err != nil {
		return err
	}
	unlock := c.nodes.lock(id)
	defer unlock()

	path := c.Path(id)
	lock, err := c.opts.fsys.Lock(path + lockSuffix)
	if err != nil {
		return translateError(err)
	}
	defer lock.Close()

	err = c.opts.fsys.Remove(path)
	// Unlinked while held so a waiting process re-creates it fresh.
	if lerr := c.opts.fsys.Remove(path + lockSuffix); lerr != nil && !errors.Is(lerr, os.ErrNotExist) {
		c.opts.logger.WithPath(path+lockSuffix).Warn("remove lock file", "error", lerr)
	}
	if err != nil {
		return translateError(err)
	}
	c.opts.logger.WithLevelIndex(id.Level, id.Index).DebugContext(ctx, "node removed")
	return nil
}

// Nodes lists the nodes stored locally, ordered by level then index.
func (c *Cache) Nodes() ([]NodeID, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	fsys := c.opts.fsys
	levels, err := fsys.ReadDir(c.root)
	if err != nil {
		return nil, err
	}

	var ids []NodeID
	for _, l := range levels {
		if !l.IsDir() {
			continue
		}
		level, err := strconv.ParseInt(l.Name(), 10, 32)
		if err != nil || level < 0 {
			continue
		}
		entries, err := fsys.ReadDir(filepath.Join(c.root, l.Name()))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			index, err := strconv.ParseInt(e.Name(), 10, 32)
			if err != nil || index < 0 {
				continue
			}
			ids = append(ids, NodeID{Level: int32(level), Index: int32(index)})
		}
	}
	sortNodeIDs(ids)
	return ids, nil
}

func sortNodeIDs(ids []NodeID) {
	slices.SortFunc(ids, func(a, b NodeID) int {
		if a.Level != b.Level {
			return int(a.Level) - int(b.Level)
		}
		return int(a.Index) - int(b.Index)
	})
}

func (c *Cache) remoteKey(id NodeID) string {
	return id.String() + c.opts.compression.Ext()
}

func (c *Cache) checkRemote() error {
	if c.closed.Load() {
		return ErrClosed
	}
	if c.remote == nil {
		return ErrNoRemote
	}
	return nil
}

// Publish uploads the local file of node id to the remote store,
// compressed as configured by WithRemote.
func (c *Cache) Publish(ctx context.Context, id NodeID) error {
	if err := c.checkRemote(); err != nil {
		return err
	}
	if err := id.validate(); err != nil {
		return err
	}

	start := time.Now()
	key := c.remoteKey(id)
	size, err := c.publish(ctx, id, key)
	c.opts.metricsCollector.RecordPublish(size, time.Since(start), err)
	c.opts.logger.LogPublish(ctx, key, size, err)

	return translateError(err)
}

func (c *Cache) publish(ctx context.Context, id NodeID, key string) (int64, error) {
	rc := c.opts.resources
	if err := rc.AcquireTransfer(ctx); err != nil {
		return 0, err
	}
	defer rc.ReleaseTransfer()

	data, err := c.readLocal(ctx, id)
	if err != nil {
		return 0, err
	}
	frame, err := compress.Encode(data, c.opts.compression)
	if err != nil {
		return 0, err
	}
	if err := c.remote.Put(ctx, key, frame); err != nil {
		return 0, err
	}
	return int64(len(frame)), nil
}

func (c *Cache) readLocal(ctx context.Context, id NodeID) ([]byte, error) {
	f, err := c.opts.fsys.OpenFile(c.Path(id), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(resource.NewRateLimitedReader(ctx, f, c.opts.resources))
}

// Fetch downloads node id from the remote store and installs it locally,
// replacing any local file. The download is validated before it is installed.
func (c *Cache) Fetch(ctx context.Context, id NodeID) (*cachefile.Metadata, error) {
	if err := c.checkRemote(); err != nil {
		return nil, err
	}
	if err := id.validate(); err != nil {
		return nil, err
	}

	key := c.remoteKey(id)
	data, err := c.fetch(ctx, key)
	if err != nil {
		c.opts.logger.LogFetch(ctx, key, 0, err)
		return nil, translateError(err)
	}
	c.opts.logger.LogFetch(ctx, key, int64(len(data)), nil)

	n, err := c.decodeNode(id, bytes.NewReader(data), openOptions{})
	if err != nil {
		return nil, err
	}

	md, err := c.replace(id, func(f fs.File) (*cachefile.Metadata, error) {
		w := resource.NewRateLimitedWriter(ctx, f, c.opts.resources)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		return n.md, nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return md, nil
}

func (c *Cache) fetch(ctx context.Context, key string) ([]byte, error) {
	rc := c.opts.resources
	if err := rc.AcquireTransfer(ctx); err != nil {
		return nil, err
	}
	defer rc.ReleaseTransfer()

	blob, err := c.remote.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	frame, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, err
	}
	return compress.Decode(frame, c.opts.compression)
}

// OpenRemote opens a published node in place, reading it with range
// requests. It requires uncompressed publishing. ctx governs the node's reads
// until it is closed.
func (c *Cache) OpenRemote(ctx context.Context, id NodeID, optFns ...OpenOption) (*Node, error) {
	if err := c.checkRemote(); err != nil {
		return nil, err
	}
	if c.opts.compression != compress.None {
		return nil, ErrCompressedRemote
	}
	if err := id.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	n, err := c.openRemote(ctx, id, optFns)
	c.opts.metricsCollector.RecordOpen(time.Since(start), err)
	c.opts.logger.LogOpen(ctx, id, err)

	return n, translateError(err)
}

func (c *Cache) openRemote(ctx context.Context, id NodeID, optFns []OpenOption) (*Node, error) {
	blob, err := c.remote.Open(ctx, id.String())
	if err != nil {
		return nil, err
	}
	return c.newNode(id, blobstore.NewReader(ctx, blob), blob, optFns)
}

// Unpublish deletes node id from the remote store.
func (c *Cache) Unpublish(ctx context.Context, id NodeID) error {
	if err := c.checkRemote(); err != nil {
		return err
	}
	return translateError(c.remote.Delete(ctx, c.remoteKey(id)))
}

// RemoteNodes lists the nodes published to the remote store.
func (c *Cache) RemoteNodes(ctx context.Context) ([]NodeID, error) {
	if err := c.checkRemote(); err != nil {
		return nil, err
	}
	names, err := c.remote.List(ctx, "")
	if err != nil {
		return nil, err
	}
	ext := c.opts.compression.Ext()
	var ids []NodeID
	for _, name := range names {
		if ext != "" {
			var ok bool
			if name, ok = strings.CutSuffix(name, ext); !ok {
				continue
			}
		}
		id, err := ParseNodeID(name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sortNodeIDs(ids)
	return ids, nil
}

// Close releases the block cache. Open nodes stay usable until they are
// closed themselves.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if c.blocks != nil {
		return c.blocks.Close()
	}
	return nil
}

// IsNotFound reports whether err means a node or feature is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
