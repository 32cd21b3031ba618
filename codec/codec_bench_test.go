package codec

import (
	"testing"

	"github.com/hupe1980/geocache/attribute"
)

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkCodecUnmarshal[T any](b *testing.B, c Codec, data []byte, dst *T) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v T
	b.ResetTimer()
	for b.Loop() {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
	if dst != nil {
		*dst = v
	}
}

func attributePayload() map[string]any {
	set := attribute.NewSet()
	set.Put("name", attribute.String("Main Street"))
	set.Put("lanes", attribute.Int32(2))
	set.Put("osm_id", attribute.Int64(42))
	set.Put("speed", attribute.Float64(13.9))
	set.Put("refs", attribute.StringArray([]string{"A1", "B7"}))
	set.Put("segments", attribute.Int64Array([]int64{1, 2, 3, 4}))
	return attribute.ToMap(set)
}

func BenchmarkCodec_Marshal_Attributes(b *testing.B) {
	m := attributePayload()
	b.Run("stdlib", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, m) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, m) })
}

func BenchmarkCodec_Unmarshal_Attributes(b *testing.B) {
	jsonData := MustMarshal(JSON{}, attributePayload())

	b.Run("stdlib", func(b *testing.B) {
		var sink map[string]any
		benchmarkCodecUnmarshal(b, JSON{}, jsonData, &sink)
	})
	b.Run("go-json", func(b *testing.B) {
		var sink map[string]any
		benchmarkCodecUnmarshal(b, GoJSON{}, jsonData, &sink)
	})
}
