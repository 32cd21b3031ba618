package cachefile

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/paulmach/orb"

	"github.com/hupe1980/geocache/model"
)

// Context is an open read view of one cache file body.
//
// The header is read once on first use and cached. A Context is not safe for
// concurrent use.
type Context struct {
	s            *readStream
	headerOffset int64
	md           *Metadata
	stats        Stats

	clientVersion int32
}

// NewContext opens a read context whose header starts at the current
// position of ch.
func NewContext(ch io.ReadSeeker, order binary.ByteOrder) (*Context, error) {
	if _, err := orderCode(order); err != nil {
		return nil, err
	}
	c := &Context{}
	s, err := newReadStream(ch, order, &c.stats)
	if err != nil {
		return nil, err
	}
	c.s = s
	c.headerOffset = s.position()
	return c, nil
}

// ByteOrder returns the byte order the context decodes with.
func (c *Context) ByteOrder() binary.ByteOrder {
	return c.s.order
}

// Stats returns the channel operation counters of this context.
func (c *Context) Stats() Stats {
	return c.stats
}

// Metadata returns the file header.
func (c *Context) Metadata() (*Metadata, error) {
	if c.md != nil {
		return c.md, nil
	}
	if err := c.s.seek(c.headerOffset); err != nil {
		return nil, err
	}
	if err := c.s.ensureReadable(HeaderSize); err != nil {
		return nil, err
	}
	c.md = decodeMetadata(c.s.take(HeaderSize), c.s.order)
	c.md.ClientVersion = c.clientVersion
	return c.md, nil
}

// Feature returns the feature at position idx in write order.
func (c *Context) Feature(idx int) (*model.Feature, error) {
	md, err := c.Metadata()
	if err != nil {
		return nil, err
	}
	off, err := c.entryOffset(md.RecordsIndexOffset, md.NumFeatures, idx)
	if err != nil {
		return nil, err
	}
	if err := c.s.seek(off); err != nil {
		return nil, err
	}
	return readFeature(c.s)
}

// FindFeature returns the feature with the given id. The index is scanned
// linearly; ErrNotFound is returned when no entry matches.
func (c *Context) FindFeature(id int64) (*model.Feature, error) {
	md, err := c.Metadata()
	if err != nil {
		return nil, err
	}
	off, err := c.find(md.RecordsIndexOffset, md.NumFeatures, id)
	if err != nil {
		return nil, err
	}
	if err := c.s.seek(off); err != nil {
		return nil, err
	}
	return readFeature(c.s)
}

// FeatureIDs returns the feature ids in write order.
func (c *Context) FeatureIDs() ([]int64, error) {
	md, err := c.Metadata()
	if err != nil {
		return nil, err
	}
	return c.ids(md.RecordsIndexOffset, md.NumFeatures)
}

// FindIntersecting is reserved for a spatial index. Files never carry one,
// so it always reports false.
func (c *Context) FindIntersecting(_ orb.Bound) ([]int64, bool) {
	return nil, false
}

// FeatureSet returns the feature set at position idx in write order.
func (c *Context) FeatureSet(idx int) (*model.FeatureSet, error) {
	md, err := c.Metadata()
	if err != nil {
		return nil, err
	}
	off, err := c.entryOffset(md.FeatureSetIndexOffset, md.NumFeatureSets, idx)
	if err != nil {
		return nil, err
	}
	if err := c.s.seek(off); err != nil {
		return nil, err
	}
	return readFeatureSet(c.s)
}

// FindFeatureSet returns the feature set with the given id.
func (c *Context) FindFeatureSet(id int64) (*model.FeatureSet, error) {
	md, err := c.Metadata()
	if err != nil {
		return nil, err
	}
	off, err := c.find(md.FeatureSetIndexOffset, md.NumFeatureSets, id)
	if err != nil {
		return nil, err
	}
	if err := c.s.seek(off); err != nil {
		return nil, err
	}
	return readFeatureSet(c.s)
}

// FeatureSetIDs returns the feature set ids in write order.
func (c *Context) FeatureSetIDs() ([]int64, error) {
	md, err := c.Metadata()
	if err != nil {
		return nil, err
	}
	return c.ids(md.FeatureSetIndexOffset, md.NumFeatureSets)
}

func (c *Context) entryOffset(indexOff int64, n, idx int) (int64, error) {
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, idx, n)
	}
	if err := c.s.seek(indexOff + int64(idx)*IndexRecordSize); err != nil {
		return 0, err
	}
	if err := c.s.ensureReadable(IndexRecordSize); err != nil {
		return 0, err
	}
	c.s.take(8)
	return c.s.int64(), nil
}

func (c *Context) find(indexOff int64, n int, id int64) (int64, error) {
	if err := c.s.seek(indexOff); err != nil {
		return 0, err
	}
	for range n {
		if err := c.s.ensureReadable(IndexRecordSize); err != nil {
			return 0, err
		}
		c.stats.IndexCompares++
		recID := c.s.int64()
		recOff := c.s.int64()
		if recID == id {
			return recOff, nil
		}
	}
	return 0, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

func (c *Context) ids(indexOff int64, n int) ([]int64, error) {
	if err := c.s.seek(indexOff); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, n)
	for range n {
		if err := c.s.ensureReadable(IndexRecordSize); err != nil {
			return nil, err
		}
		ids = append(ids, c.s.int64())
		c.s.take(8)
	}
	return ids, nil
}
