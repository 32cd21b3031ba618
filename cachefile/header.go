package cachefile

import (
	"encoding/binary"
	"fmt"
)

// Metadata is the decoded header of a cache file.
type Metadata struct {
	Timestamp      int64
	NumFeatures    int
	NumFeatureSets int
	Level          int32
	Index          int32
	Terminal       bool

	RecordsIndexOffset    int64
	RecordsTableOffset    int64
	SpatialIndexOffset    int64
	FeatureSetIndexOffset int64
	FeatureSetTableOffset int64

	// ClientVersion is set by OpenFile from the file envelope; it is zero
	// for bare bodies opened with NewContext.
	ClientVersion int32
}

// ContentExceedsLimit reports whether the source had more matches than the
// file holds, i.e. this is not the last page.
func (m *Metadata) ContentExceedsLimit() bool {
	return !m.Terminal
}

// String returns a short description of the metadata.
func (m *Metadata) String() string {
	return fmt.Sprintf("Metadata(level=%d index=%d features=%d featureSets=%d terminal=%t timestamp=%d)",
		m.Level, m.Index, m.NumFeatures, m.NumFeatureSets, m.Terminal, m.Timestamp)
}

// encode returns the 64-byte header.
func (m *Metadata) encode(order binary.ByteOrder) []byte {
	buf := make([]byte, HeaderSize)
	order.PutUint64(buf[0:], uint64(m.Timestamp))
	order.PutUint16(buf[8:], uint16(m.NumFeatures))
	order.PutUint16(buf[10:], uint16(m.NumFeatureSets))
	order.PutUint32(buf[12:], uint32(m.Level))
	order.PutUint32(buf[16:], uint32(m.Index))
	if m.Terminal {
		buf[20] = 1
	}
	// Reserved [21:24]
	order.PutUint64(buf[24:], uint64(m.RecordsIndexOffset))
	order.PutUint64(buf[32:], uint64(m.RecordsTableOffset))
	order.PutUint64(buf[40:], uint64(m.SpatialIndexOffset))
	order.PutUint64(buf[48:], uint64(m.FeatureSetIndexOffset))
	order.PutUint64(buf[56:], uint64(m.FeatureSetTableOffset))
	return buf
}

func decodeMetadata(buf []byte, order binary.ByteOrder) *Metadata {
	return &Metadata{
		Timestamp:             int64(order.Uint64(buf[0:])),
		NumFeatures:           int(order.Uint16(buf[8:])),
		NumFeatureSets:        int(order.Uint16(buf[10:])),
		Level:                 int32(order.Uint32(buf[12:])),
		Index:                 int32(order.Uint32(buf[16:])),
		Terminal:              buf[20] != 0,
		RecordsIndexOffset:    int64(order.Uint64(buf[24:])),
		RecordsTableOffset:    int64(order.Uint64(buf[32:])),
		SpatialIndexOffset:    int64(order.Uint64(buf[40:])),
		FeatureSetIndexOffset: int64(order.Uint64(buf[48:])),
		FeatureSetTableOffset: int64(order.Uint64(buf[56:])),
	}
}
