package cachefile

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/geocache/model"
	"github.com/hupe1980/geocache/resource"
)

// WriteParams configures WriteCache.
type WriteParams struct {
	// Order is the byte order of the body. Defaults to big endian.
	Order     binary.ByteOrder
	Level     int32
	Index     int32
	Timestamp int64
	// Query selects the features to snapshot. A positive Limit marks the
	// file non-terminal when the source has more matches.
	Query model.FeatureQuery
	// Resources accounts the scratch index memory. Optional.
	Resources *resource.Controller
	// BufferSize is the initial write buffer size.
	BufferSize int
}

// WriteResult describes a completed write.
type WriteResult struct {
	Metadata *Metadata
	Stats    Stats
	// Size is the number of bytes written, header included.
	Size int64
}

type indexEntry struct {
	id  int64
	off int64
}

// scratchIndex collects (id, offset) pairs while a table is streamed. Its
// backing memory is reserved on the resource controller as it grows.
type scratchIndex struct {
	rc       *resource.Controller
	entries  []indexEntry
	reserved int64
}

func (x *scratchIndex) add(ctx context.Context, id, off int64) error {
	if len(x.entries) == cap(x.entries) {
		newCap := min(max(2*cap(x.entries), 64), MaxRecords)
		need := int64(newCap-cap(x.entries)) * IndexRecordSize
		// The reservation already held counts against the limit too.
		if limit := x.rc.MemoryLimit(); limit > 0 && x.reserved+need > limit {
			return fmt.Errorf("scratch index: %w: %d of %d bytes", resource.ErrMemoryLimitExceeded, x.reserved+need, limit)
		}
		if err := x.rc.AcquireMemory(ctx, need); err != nil {
			return err
		}
		x.reserved += need
		grown := make([]indexEntry, len(x.entries), newCap)
		copy(grown, x.entries)
		x.entries = grown
	}
	x.entries = append(x.entries, indexEntry{id: id, off: off})
	return nil
}

func (x *scratchIndex) reset() {
	x.entries = x.entries[:0]
}

func (x *scratchIndex) release() {
	x.rc.ReleaseMemory(x.reserved)
	x.reserved = 0
	x.entries = nil
}

// WriteCache writes a complete snapshot of src to ch, starting at the current
// position of ch.
//
// The header region is reserved first and backpatched once both tables and
// their indexes are written. Any error aborts the write and leaves ch with a
// partial body and no valid header.
func WriteCache(ctx context.Context, ch io.WriteSeeker, src model.FeatureStore, p WriteParams) (*WriteResult, error) {
	order := p.Order
	if order == nil {
		order = binary.BigEndian
	}
	if _, err := orderCode(order); err != nil {
		return nil, err
	}

	res := &WriteResult{}
	s, err := newWriteStream(ch, order, p.BufferSize, &res.Stats)
	if err != nil {
		return nil, err
	}

	// ReserveHeader
	headerOff := s.position()
	if err := s.ensureWritable(HeaderSize); err != nil {
		return nil, err
	}
	clear(s.grow(HeaderSize))

	md := &Metadata{
		Timestamp:          p.Timestamp,
		Level:              p.Level,
		Index:              p.Index,
		RecordsTableOffset: s.position(),
		SpatialIndexOffset: NoSpatialIndex,
	}

	q := p.Query
	limit := math.MaxInt
	if q.Limit > 0 && q.Limit < math.MaxInt32 {
		q.Limit++
		limit = q.Limit
	}

	idx := &scratchIndex{rc: p.Resources}
	defer idx.release()

	// WriteFeatureRecords
	fsids := roaring64.New()
	for f, err := range src.QueryFeatures(ctx, q) {
		if err != nil {
			return nil, fmt.Errorf("query features: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(idx.entries) == MaxRecords {
			return nil, ErrTooManyRecords
		}
		if err := idx.add(ctx, f.ID, s.position()); err != nil {
			return nil, err
		}
		fsids.Add(uint64(f.FeatureSetID))
		if err := writeFeature(s, f); err != nil {
			return nil, err
		}
	}
	md.NumFeatures = len(idx.entries)
	md.Terminal = md.NumFeatures < limit

	// WriteFeatureIndex
	md.RecordsIndexOffset = s.position()
	if err := writeIndex(s, idx.entries); err != nil {
		return nil, err
	}

	// WriteFeatureSetRecords
	md.FeatureSetTableOffset = s.position()
	idx.reset()
	if !fsids.IsEmpty() {
		ids := make([]int64, 0, fsids.GetCardinality())
		for _, id := range fsids.ToArray() {
			ids = append(ids, int64(id))
		}
		for fs, err := range src.QueryFeatureSets(ctx, model.FeatureSetQuery{IDs: ids}) {
			if err != nil {
				return nil, fmt.Errorf("query feature sets: %w", err)
			}
			if len(idx.entries) == MaxRecords {
				return nil, ErrTooManyRecords
			}
			if err := idx.add(ctx, fs.ID, s.position()); err != nil {
				return nil, err
			}
			if err := writeFeatureSet(s, fs); err != nil {
				return nil, err
			}
		}
	}
	md.NumFeatureSets = len(idx.entries)

	// WriteFeatureSetIndex
	md.FeatureSetIndexOffset = s.position()
	if err := writeIndex(s, idx.entries); err != nil {
		return nil, err
	}
	end := s.position()

	// BackpatchHeader
	if err := s.seek(headerOff); err != nil {
		return nil, err
	}
	if err := s.ensureWritable(HeaderSize); err != nil {
		return nil, err
	}
	s.putBytes(md.encode(order))
	if err := s.seek(end); err != nil {
		return nil, err
	}

	res.Metadata = md
	res.Size = end - headerOff
	return res, nil
}

func writeIndex(s *writeStream, entries []indexEntry) error {
	for _, e := range entries {
		if err := s.ensureWritable(IndexRecordSize); err != nil {
			return err
		}
		s.putInt64(e.id)
		s.putInt64(e.off)
	}
	return s.flush()
}
