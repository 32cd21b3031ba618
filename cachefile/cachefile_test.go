package cachefile

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/geocache/attribute"
	"github.com/hupe1980/geocache/model"
	"github.com/hupe1980/geocache/resource"
	"github.com/hupe1980/geocache/style"
	"github.com/hupe1980/geocache/testutil"
)

func writeSnapshot(t *testing.T, src model.FeatureStore, p WriteParams) (*testutil.Channel, *WriteResult) {
	t.Helper()
	ch := testutil.NewChannel(nil)
	res, err := WriteCache(context.Background(), ch, src, p)
	require.NoError(t, err)
	return ch, res
}

func openSnapshot(t *testing.T, ch *testutil.Channel, order binary.ByteOrder) *Context {
	t.Helper()
	_, err := ch.Seek(0, io.SeekStart)
	require.NoError(t, err)
	c, err := NewContext(ch, order)
	require.NoError(t, err)
	return c
}

func assertSameFeature(t *testing.T, want, got *model.Feature) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.FeatureSetID, got.FeatureSetID)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Version, got.Version)
	assert.Equal(t, want.Timestamp, got.Timestamp)

	if want.Name == nil || *want.Name == "" {
		assert.Nil(t, got.Name)
	} else if assert.NotNil(t, got.Name) {
		assert.Equal(t, *want.Name, *got.Name)
	}

	if want.Geometry == nil {
		assert.Nil(t, got.Geometry)
	} else {
		assert.True(t, orb.Equal(want.Geometry, got.Geometry), "geometry %v != %v", want.Geometry, got.Geometry)
	}

	assert.Equal(t, want.Style, got.Style)

	if want.Attributes.Len() == 0 {
		assert.Nil(t, got.Attributes)
	} else {
		assert.True(t, want.Attributes.Equal(got.Attributes), "attributes %v != %v", want.Attributes, got.Attributes)
	}
}

func minimalFeatures(n int) []*model.Feature {
	out := make([]*model.Feature, n)
	for i := range out {
		out[i] = &model.Feature{
			FeatureSetID: int64(i % 5),
			ID:           int64(i),
			Name:         model.StringPtr(fmt.Sprintf("f%d", i)),
			Timestamp:    int64(i) * 10,
			Version:      1,
		}
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(4711)

	tests := []struct {
		name     string
		features []*model.Feature
	}{
		{"zero", nil},
		{"one", rng.Features(1, testutil.FeatureOptions{})},
		{"several", rng.Features(300, testutil.FeatureOptions{FeatureSets: 4, Sparse: true})},
		{"max", minimalFeatures(MaxRecords)},
	}
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		for _, tt := range tests {
			t.Run(order.String()+"/"+tt.name, func(t *testing.T) {
				src := testutil.NewMemorySource()
				src.AddFeatures(tt.features...)

				ch, res := writeSnapshot(t, src, WriteParams{Order: order, Level: 3, Index: 17, Timestamp: 99})
				assert.Equal(t, int64(ch.Len()), res.Size)

				c := openSnapshot(t, ch, order)
				md, err := c.Metadata()
				require.NoError(t, err)
				assert.Equal(t, len(tt.features), md.NumFeatures)
				assert.Equal(t, int32(3), md.Level)
				assert.Equal(t, int32(17), md.Index)
				assert.Equal(t, int64(99), md.Timestamp)
				assert.True(t, md.Terminal)
				assert.Equal(t, res.Metadata.RecordsIndexOffset, md.RecordsIndexOffset)

				cur := c.StrictFeatures()
				i := 0
				for cur.Next() {
					require.Less(t, i, len(tt.features))
					assertSameFeature(t, tt.features[i], cur.Feature())
					i++
				}
				require.NoError(t, cur.Err())
				assert.Equal(t, len(tt.features), i)
			})
		}
	}
}

func TestShortReads(t *testing.T) {
	rng := testutil.NewRNG(1)
	features := rng.Features(50, testutil.FeatureOptions{})
	big := attribute.NewSet()
	big.Put("blob", attribute.Bytes(rng.Bytes(3*writeBufferSize)))
	features[10].Attributes = big

	src := testutil.NewMemorySource()
	src.AddFeatures(features...)
	ch, _ := writeSnapshot(t, src, WriteParams{BufferSize: 64})
	ch.MaxRead = 7

	c := openSnapshot(t, ch, binary.BigEndian)
	i := 0
	for f, err := range c.StrictFeatures().All() {
		require.NoError(t, err)
		assertSameFeature(t, features[i], f)
		i++
	}
	assert.Equal(t, 50, i)
}

func TestPositionalAccess(t *testing.T) {
	ids := []int64{900, -5, 42, 7, 1 << 40}
	src := testutil.NewMemorySource()
	for _, id := range ids {
		src.AddFeatures(&model.Feature{ID: id, FeatureSetID: 1, Name: model.StringPtr(fmt.Sprint(id))})
	}
	ch, _ := writeSnapshot(t, src, WriteParams{})
	c := openSnapshot(t, ch, binary.BigEndian)

	for i, id := range ids {
		f, err := c.Feature(i)
		require.NoError(t, err)
		assert.Equal(t, id, f.ID)
	}

	for _, idx := range []int{-1, len(ids)} {
		_, err := c.Feature(idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}

	got, err := c.FeatureIDs()
	require.NoError(t, err)
	assert.Equal(t, ids, got)
}

func TestFindFeatureIsLinear(t *testing.T) {
	for _, n := range []int{10, 100, 1000} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			src := testutil.NewMemorySource()
			src.AddFeatures(minimalFeatures(n)...)
			ch, _ := writeSnapshot(t, src, WriteParams{})
			c := openSnapshot(t, ch, binary.BigEndian)

			before := c.Stats().IndexCompares
			_, err := c.FindFeature(-1)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Equal(t, n, c.Stats().IndexCompares-before)

			target := int64(n / 2)
			before = c.Stats().IndexCompares
			f, err := c.FindFeature(target)
			require.NoError(t, err)
			assert.Equal(t, target, f.ID)
			assert.Equal(t, n/2+1, c.Stats().IndexCompares-before)
		})
	}
}

func TestTerminalFlag(t *testing.T) {
	tests := []struct {
		name         string
		available    int
		limit        int
		wantTerminal bool
		wantCount    int
		wantQueried  int
	}{
		{"more than limit", 10, 5, false, 6, 6},
		{"one more than limit", 6, 5, false, 6, 6},
		{"exactly limit", 5, 5, true, 5, 6},
		{"below limit", 3, 5, true, 3, 6},
		{"no limit", 10, 0, true, 10, 0},
		{"negative limit", 4, -1, true, 4, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := testutil.NewMemorySource()
			src.AddFeatures(minimalFeatures(tt.available)...)

			_, res := writeSnapshot(t, src, WriteParams{Query: model.FeatureQuery{Limit: tt.limit}})
			assert.Equal(t, tt.wantTerminal, res.Metadata.Terminal)
			assert.Equal(t, !tt.wantTerminal, res.Metadata.ContentExceedsLimit())
			assert.Equal(t, tt.wantCount, res.Metadata.NumFeatures)

			queries := src.Queries()
			require.Len(t, queries, 1)
			assert.Equal(t, tt.wantQueried, queries[0].Limit)
		})
	}
}

func TestEmptySnapshot(t *testing.T) {
	src := testutil.NewMemorySource()
	src.AddFeatureSets(&model.FeatureSet{ID: 1})
	ch, res := writeSnapshot(t, src, WriteParams{})
	assert.Equal(t, int64(HeaderSize), res.Size)

	c := openSnapshot(t, ch, binary.BigEndian)
	md, err := c.Metadata()
	require.NoError(t, err)
	assert.Equal(t, 0, md.NumFeatures)
	assert.Equal(t, 0, md.NumFeatureSets)
	assert.True(t, md.Terminal)

	cur := c.Features()
	assert.False(t, cur.Next())
	assert.Nil(t, cur.Feature())
	assert.NoError(t, cur.Err())

	ids, err := c.FeatureIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEmptyAndAbsentNames(t *testing.T) {
	src := testutil.NewMemorySource()
	src.AddFeatures(
		&model.Feature{ID: 1, Name: model.StringPtr("Alpha"), FeatureSetID: 10, Version: 1, Timestamp: 100},
		&model.Feature{ID: 2, Name: nil, FeatureSetID: 20, Version: 2, Timestamp: 200},
		&model.Feature{ID: 3, Name: model.StringPtr(""), FeatureSetID: 30, Version: 3, Timestamp: 300},
	)
	ch, _ := writeSnapshot(t, src, WriteParams{})
	c := openSnapshot(t, ch, binary.BigEndian)

	var rows []*model.Feature
	cur := c.Features()
	for cur.Next() {
		rows = append(rows, cur.Feature())
	}
	require.Len(t, rows, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.Equal(t, "Alpha", *rows[0].Name)
	assert.Nil(t, rows[1].Name)
	assert.Nil(t, rows[2].Name)

	second, err := c.Feature(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, int64(20), second.FeatureSetID)

	third, err := c.FindFeature(3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.ID)
	assert.Nil(t, third.Name)
	assert.Nil(t, third.Geometry)
	assert.Nil(t, third.Style)
	assert.Nil(t, third.Attributes)
}

// corruptTag writes one feature with a single int32 attribute and overwrites
// its type tag.
func corruptTag(t *testing.T, tag byte) *testutil.Channel {
	t.Helper()
	attrs := attribute.NewSet()
	attrs.Put("k", attribute.Int32(1))
	src := testutil.NewMemorySource()
	src.AddFeatures(&model.Feature{ID: 1, Attributes: attrs})
	ch, _ := writeSnapshot(t, src, WriteParams{})

	// header + fixed fields + name + wkbLen + style + count + key
	off := HeaderSize + 32 + 2 + 4 + 2 + 4 + 4
	require.Equal(t, byte(1), ch.Bytes()[off])
	ch.Bytes()[off] = tag
	return ch
}

func TestUnknownAttributeTag(t *testing.T) {
	ch := corruptTag(t, 99)
	c := openSnapshot(t, ch, binary.BigEndian)

	_, err := c.FindFeature(1)
	require.ErrorIs(t, err, ErrUnsupportedAttributeType)
	var ute *UnsupportedAttributeTypeError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, uint8(99), ute.Tag)

	lenient := c.Features()
	assert.False(t, lenient.Next())
	assert.NoError(t, lenient.Err())

	strict := c.StrictFeatures()
	assert.False(t, strict.Next())
	assert.ErrorIs(t, strict.Err(), ErrUnsupportedAttributeType)
	assert.False(t, strict.Next())
}

func TestTruncatedFile(t *testing.T) {
	src := testutil.NewMemorySource()
	src.AddFeatures(minimalFeatures(20)...)
	ch, res := writeSnapshot(t, src, WriteParams{})

	t.Run("header", func(t *testing.T) {
		short := testutil.NewChannel(ch.Bytes()[:HeaderSize-1])
		c, err := NewContext(short, binary.BigEndian)
		require.NoError(t, err)
		_, err = c.Metadata()
		assert.ErrorIs(t, err, ErrUnexpectedEOF)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("records", func(t *testing.T) {
		short := testutil.NewChannel(ch.Bytes()[:res.Metadata.RecordsTableOffset+100])
		c := openSnapshot(t, short, binary.BigEndian)

		_, err := c.Feature(0)
		assert.ErrorIs(t, err, ErrUnexpectedEOF)

		// Lenient: rows decoded before the cut, then silent end.
		lenient := c.Features()
		n := 0
		for lenient.Next() {
			n++
		}
		assert.Positive(t, n)
		assert.Less(t, n, 20)
		assert.NoError(t, lenient.Err())

		strict := c.StrictFeatures()
		for strict.Next() {
		}
		assert.ErrorIs(t, strict.Err(), ErrUnexpectedEOF)
	})
}

func TestTooManyRecords(t *testing.T) {
	src := testutil.NewMemorySource()
	src.AddFeatures(minimalFeatures(MaxRecords + 1)...)
	rc := resource.NewController(resource.Config{})

	_, err := WriteCache(context.Background(), testutil.NewChannel(nil), src, WriteParams{Resources: rc})
	assert.ErrorIs(t, err, ErrTooManyRecords)
	assert.Zero(t, rc.MemoryUsage())
}

func TestSourceFailureReleasesScratch(t *testing.T) {
	src := testutil.NewMemorySource()
	src.AddFeatures(minimalFeatures(100)...)
	src.FailAfter = 50
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})

	_, err := WriteCache(context.Background(), testutil.NewChannel(nil), src, WriteParams{Resources: rc})
	assert.ErrorIs(t, err, testutil.ErrInjected)
	assert.Zero(t, rc.MemoryUsage())

	src.FailAfter = 0
	_, err = WriteCache(context.Background(), testutil.NewChannel(nil), src, WriteParams{Resources: rc})
	require.NoError(t, err)
	assert.Zero(t, rc.MemoryUsage())
}

func TestCanceledWrite(t *testing.T) {
	src := testutil.NewMemorySource()
	src.AddFeatures(minimalFeatures(100)...)
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64 * IndexRecordSize})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WriteCache(ctx, testutil.NewChannel(nil), src, WriteParams{Resources: rc})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rc.MemoryUsage())
}

func TestScratchAboveMemoryLimit(t *testing.T) {
	src := testutil.NewMemorySource()
	src.AddFeatures(minimalFeatures(100)...)
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1500})

	done := make(chan error, 1)
	go func() {
		_, err := WriteCache(context.Background(), testutil.NewChannel(nil), src, WriteParams{Resources: rc})
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("WriteCache blocked on a scratch index larger than the memory limit")
	}
	assert.Zero(t, rc.MemoryUsage())
}

func TestBackslashInStyle(t *testing.T) {
	label := &style.Style{Tools: []style.Tool{
		{Name: "LABEL", Params: []style.Param{{Key: "t", Value: `C:\`, Quoted: true}}},
	}}
	features := []*model.Feature{
		{ID: 1, FeatureSetID: 1, Style: label},
		{ID: 2, FeatureSetID: 1},
	}
	src := testutil.NewMemorySource()
	src.AddFeatures(features...)

	ch, _ := writeSnapshot(t, src, WriteParams{})
	c := openSnapshot(t, ch, binary.BigEndian)

	var got []*model.Feature
	for f, err := range c.StrictFeatures().All() {
		require.NoError(t, err)
		got = append(got, f)
	}
	require.Len(t, got, 2)
	assertSameFeature(t, features[0], got[0])
	assertSameFeature(t, features[1], got[1])
}

func TestFeatureSets(t *testing.T) {
	src := testutil.NewMemorySource()
	src.AddFeatureSets(
		&model.FeatureSet{ID: 1, Provider: "kml", Type: "kml", Name: "one", MinResolution: 1, MaxResolution: 10, Version: 3},
		&model.FeatureSet{ID: 2, Provider: "", Type: "shp", Name: "unreferenced"},
		&model.FeatureSet{ID: 3, Provider: "", Type: "", Name: "three", MinResolution: 0.5},
	)
	src.AddFeatures(
		&model.Feature{ID: 10, FeatureSetID: 3},
		&model.Feature{ID: 11, FeatureSetID: 1},
		&model.Feature{ID: 12, FeatureSetID: 3},
	)
	ch, res := writeSnapshot(t, src, WriteParams{})
	assert.Equal(t, 2, res.Metadata.NumFeatureSets)

	c := openSnapshot(t, ch, binary.BigEndian)
	ids, err := c.FeatureSetIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 3}, ids)

	fs, err := c.FindFeatureSet(1)
	require.NoError(t, err)
	assert.Equal(t, model.FeatureSet{ID: 1, Provider: "kml", Type: "kml", Name: "one", MinResolution: 1, MaxResolution: 10, Version: 3}, *fs)

	fs, err = c.FindFeatureSet(3)
	require.NoError(t, err)
	assert.Equal(t, "", fs.Provider)
	assert.Equal(t, "", fs.Type)
	assert.Equal(t, "three", fs.Name)

	_, err = c.FindFeatureSet(2)
	assert.ErrorIs(t, err, ErrNotFound)

	for i, id := range ids {
		fs, err := c.FeatureSet(i)
		require.NoError(t, err)
		assert.Equal(t, id, fs.ID)
	}
	_, err = c.FeatureSet(2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestCursorInterleavedWithLookups(t *testing.T) {
	src := testutil.NewMemorySource()
	src.AddFeatures(minimalFeatures(200)...)
	ch, _ := writeSnapshot(t, src, WriteParams{})
	c := openSnapshot(t, ch, binary.BigEndian)

	cur := c.StrictFeatures()
	var i int64
	for cur.Next() {
		assert.Equal(t, i, cur.Feature().ID)
		f, err := c.FindFeature(199 - i)
		require.NoError(t, err)
		assert.Equal(t, 199-i, f.ID)
		i++
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, int64(200), i)
}

func TestWriteAtOffset(t *testing.T) {
	src := testutil.NewMemorySource()
	src.AddFeatures(minimalFeatures(5)...)

	ch := testutil.NewChannel(make([]byte, 100))
	_, err := ch.Seek(100, io.SeekStart)
	require.NoError(t, err)
	res, err := WriteCache(context.Background(), ch, src, WriteParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(100+HeaderSize), res.Metadata.RecordsTableOffset)

	_, err = ch.Seek(100, io.SeekStart)
	require.NoError(t, err)
	c, err := NewContext(ch, binary.BigEndian)
	require.NoError(t, err)
	f, err := c.FindFeature(4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), f.ID)
}

func TestHeaderLayout(t *testing.T) {
	md := &Metadata{
		Timestamp:             0x0102030405060708,
		NumFeatures:           0xFFFF,
		NumFeatureSets:        2,
		Level:                 -1,
		Index:                 5,
		Terminal:              true,
		RecordsIndexOffset:    100,
		RecordsTableOffset:    64,
		SpatialIndexOffset:    NoSpatialIndex,
		FeatureSetIndexOffset: 300,
		FeatureSetTableOffset: 200,
	}
	buf := md.encode(binary.BigEndian)
	require.Len(t, buf, HeaderSize)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf[0:8])
	assert.Equal(t, []byte{0xFF, 0xFF}, buf[8:10])
	assert.Equal(t, []byte{0, 2}, buf[10:12])
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, buf[12:16])
	assert.Equal(t, []byte{0, 0, 0, 5}, buf[16:20])
	assert.Equal(t, []byte{1, 0, 0, 0}, buf[20:24])
	assert.Equal(t, uint64(100), binary.BigEndian.Uint64(buf[24:]))
	assert.Equal(t, uint64(64), binary.BigEndian.Uint64(buf[32:]))
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, buf[40:48])
	assert.Equal(t, uint64(300), binary.BigEndian.Uint64(buf[48:]))
	assert.Equal(t, uint64(200), binary.BigEndian.Uint64(buf[56:]))

	assert.Equal(t, md, decodeMetadata(buf, binary.BigEndian))
}

func TestSpatialLookupIsReserved(t *testing.T) {
	src := testutil.NewMemorySource()
	src.AddFeatures(&model.Feature{ID: 1, Geometry: orb.Point{1, 1}})
	ch, res := writeSnapshot(t, src, WriteParams{})
	assert.Equal(t, NoSpatialIndex, res.Metadata.SpatialIndexOffset)

	c := openSnapshot(t, ch, binary.BigEndian)
	ids, ok := c.FindIntersecting(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 2}})
	assert.False(t, ok)
	assert.Nil(t, ids)
}

func TestUnsupportedByteOrder(t *testing.T) {
	_, err := NewContext(testutil.NewChannel(nil), binary.NativeEndian)
	assert.ErrorIs(t, err, ErrUnsupportedByteOrder)
}
