package cachefile

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/geocache/model"
)

const (
	// Magic identifies a cache file envelope.
	Magic = "GCF1"

	// FormatVersion is the body format written by WriteFile.
	FormatVersion = 1

	// EnvelopeSize is the size of the envelope preceding the body.
	EnvelopeSize = 16
)

// Envelope is the fixed prefix written by WriteFile. Its fields are always
// big endian; the body uses Order.
type Envelope struct {
	Version       uint8
	Order         binary.ByteOrder
	ClientVersion int32
}

func (e *Envelope) encode() ([]byte, error) {
	code, err := orderCode(e.Order)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, EnvelopeSize)
	copy(buf[0:4], Magic)
	buf[4] = e.Version
	buf[5] = code
	// Reserved [6:8]
	binary.BigEndian.PutUint32(buf[8:], uint32(e.ClientVersion))
	// Reserved [12:16]
	return buf, nil
}

func decodeEnvelope(buf []byte) (*Envelope, error) {
	if string(buf[0:4]) != Magic {
		return nil, ErrInvalidMagic
	}
	if buf[4] != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, buf[4])
	}
	order, err := orderFromCode(buf[5])
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Version:       buf[4],
		Order:         order,
		ClientVersion: int32(binary.BigEndian.Uint32(buf[8:])),
	}, nil
}

// WriteFile writes an envelope carrying the byte order and clientVersion,
// followed by a snapshot body written by WriteCache.
func WriteFile(ctx context.Context, ch io.WriteSeeker, src model.FeatureStore, clientVersion int32, p WriteParams) (*WriteResult, error) {
	if p.Order == nil {
		p.Order = binary.BigEndian
	}
	env := &Envelope{Version: FormatVersion, Order: p.Order, ClientVersion: clientVersion}
	buf, err := env.encode()
	if err != nil {
		return nil, err
	}
	if _, err := ch.Write(buf); err != nil {
		return nil, fmt.Errorf("write envelope: %w", err)
	}
	res, err := WriteCache(ctx, ch, src, p)
	if err != nil {
		return nil, err
	}
	res.Metadata.ClientVersion = clientVersion
	res.Stats.Writes++
	res.Size += EnvelopeSize
	return res, nil
}

// OpenFile reads the envelope at the current position of ch and returns a
// context over the body that follows it.
func OpenFile(ch io.ReadSeeker) (*Context, error) {
	buf := make([]byte, EnvelopeSize)
	if _, err := io.ReadFull(ch, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrUnexpectedEOF
		}
		return nil, err
	}
	env, err := decodeEnvelope(buf)
	if err != nil {
		return nil, err
	}
	c, err := NewContext(ch, env.Order)
	if err != nil {
		return nil, err
	}
	c.clientVersion = env.ClientVersion
	c.stats.Reads++
	return c, nil
}
