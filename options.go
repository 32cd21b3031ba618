package geocache

import (
	"encoding/binary"
	"time"

	"github.com/hupe1980/geocache/blobstore"
	"github.com/hupe1980/geocache/internal/compress"
	"github.com/hupe1980/geocache/internal/fs"
	"github.com/hupe1980/geocache/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	order            binary.ByteOrder
	clientVersion    int32
	fsys             fs.FileSystem
	resources        *resource.Controller
	atomicWrites     bool
	remote           blobstore.BlobStore
	compression      compress.Type
	blockCacheBytes  int64
	blockSize        int64
	now              func() time.Time
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		order:            binary.BigEndian,
		fsys:             fs.Default,
		atomicWrites:     true,
		compression:      compress.None,
		now:              time.Now,
	}
}

// Option configures a Cache.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithByteOrder sets the byte order of newly written files. Files are
// always read in the order recorded in their envelope.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(o *options) {
		if order != nil {
			o.order = order
		}
	}
}

// WithClientVersion sets the version stamped into written files. Files
// carrying a different version open as stale.
func WithClientVersion(v int32) Option {
	return func(o *options) {
		o.clientVersion = v
	}
}

// WithFileSystem replaces the local file system.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fsys = fsys
		}
	}
}

// WithResourceController accounts writer memory, bounds concurrent
// transfers and throttles file IO.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithAtomicWrites selects how nodes are written. When enabled (the default)
// a node is written to a swap file and renamed into place once complete, so
// readers never observe a partial file. When disabled the node is written in
// place, which is compatible with readers that hold the path open.
func WithAtomicWrites(enabled bool) Option {
	return func(o *options) {
		o.atomicWrites = enabled
	}
}

// Compression selects how published nodes are stored remotely.
type Compression = compress.Type

// Remote compression codecs.
const (
	CompressionNone = compress.None
	CompressionLZ4  = compress.LZ4
	CompressionZSTD = compress.ZSTD
)

// WithRemote enables Publish, Fetch and OpenRemote against store.
// Published objects are compressed with c.
func WithRemote(store blobstore.BlobStore, c Compression) Option {
	return func(o *options) {
		o.remote = store
		o.compression = c
	}
}

// WithBlockCache caches remote reads in blocks of blockSize bytes, holding
// at most capacity bytes. Zero blockSize selects blobstore.DefaultBlockSize.
func WithBlockCache(capacity, blockSize int64) Option {
	return func(o *options) {
		o.blockCacheBytes = capacity
		o.blockSize = blockSize
	}
}

// OpenOption configures Cache.Open.
type OpenOption func(*openOptions)

type openOptions struct {
	terminalOnly       bool
	currentVersionOnly bool
}

// WithTerminalOnly rejects files that are not the last page of their query
// with ErrNotTerminal.
func WithTerminalOnly() OpenOption {
	return func(o *openOptions) { o.terminalOnly = true }
}

// WithCurrentVersionOnly rejects files written by another client version
// with ErrStaleClientVersion.
func WithCurrentVersionOnly() OpenOption {
	return func(o *openOptions) { o.currentVersionOnly = true }
}
