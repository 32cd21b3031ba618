package cachefile

import (
	"encoding/binary"
	"math"
)

const (
	// HeaderSize is the size of the backpatched metadata header.
	HeaderSize = 64

	// IndexRecordSize is the size of one (id, offset) index entry.
	IndexRecordSize = 16

	// MaxRecords is the maximum number of features or feature sets per file.
	MaxRecords = math.MaxUint16

	// MaxStringBytes is the largest encodable string, in UTF-16 bytes.
	MaxStringBytes = math.MaxUint16

	// NoSpatialIndex is stored in the spatial index offset slot.
	NoSpatialIndex int64 = -1

	readBufferSize  = 8192
	writeBufferSize = 10240
)

// Attribute type tags.
const (
	tagNull         uint8 = 0
	tagInt32        uint8 = 1
	tagInt64        uint8 = 2
	tagFloat64      uint8 = 3
	tagString       uint8 = 4
	tagBytes        uint8 = 5
	tagInt32Array   uint8 = 11
	tagInt64Array   uint8 = 12
	tagFloat64Array uint8 = 13
	tagStringArray  uint8 = 14
	tagBytesArray   uint8 = 15
	tagNested       uint8 = 20
)

// Byte order codes used by the file envelope.
const (
	orderBigEndian    uint8 = 0
	orderLittleEndian uint8 = 1
)

func orderCode(order binary.ByteOrder) (uint8, error) {
	switch order {
	case binary.BigEndian:
		return orderBigEndian, nil
	case binary.LittleEndian:
		return orderLittleEndian, nil
	}
	return 0, ErrUnsupportedByteOrder
}

func orderFromCode(code uint8) (binary.ByteOrder, error) {
	switch code {
	case orderBigEndian:
		return binary.BigEndian, nil
	case orderLittleEndian:
		return binary.LittleEndian, nil
	}
	return nil, ErrUnsupportedByteOrder
}
