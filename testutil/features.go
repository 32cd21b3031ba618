package testutil

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/hupe1980/geocache/attribute"
	"github.com/hupe1980/geocache/model"
	"github.com/hupe1980/geocache/style"
)

// FeatureOptions controls synthetic feature generation.
type FeatureOptions struct {
	// FeatureSets is the number of distinct feature set ids (default 1).
	FeatureSets int
	// FirstID is the id of the first feature; ids are consecutive.
	FirstID int64
	// Bound confines generated geometries (default: the whole world).
	Bound orb.Bound
	// Sparse leaves name, geometry, style and attributes unset on roughly
	// half of the features.
	Sparse bool
}

// Features generates n synthetic features with ids FirstID..FirstID+n-1.
func (r *RNG) Features(n int, opts FeatureOptions) []*model.Feature {
	if opts.FeatureSets <= 0 {
		opts.FeatureSets = 1
	}
	if opts.Bound.IsZero() {
		opts.Bound = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}
	}
	out := make([]*model.Feature, n)
	for i := range out {
		f := &model.Feature{
			FeatureSetID: int64(i%opts.FeatureSets) + 1,
			ID:           opts.FirstID + int64(i),
			Timestamp:    r.Int63(),
			Version:      int64(r.Intn(1000)),
		}
		if !opts.Sparse || r.Intn(2) == 0 {
			f.Name = model.StringPtr(fmt.Sprintf("feature-%d-%s", f.ID, r.String(4)))
			f.Geometry = r.Geometry(opts.Bound)
			f.Style = r.Style()
			f.Attributes = r.Attributes()
		}
		out[i] = f
	}
	return out
}

// FeatureSets generates feature sets with ids 1..n.
func (r *RNG) FeatureSets(n int) []*model.FeatureSet {
	out := make([]*model.FeatureSet, n)
	for i := range out {
		minRes := r.Range(0, 100)
		out[i] = &model.FeatureSet{
			ID:            int64(i) + 1,
			Provider:      "synthetic",
			Type:          []string{"kml", "shp", "gpx"}[i%3],
			Name:          fmt.Sprintf("set-%d", i+1),
			MinResolution: minRes,
			MaxResolution: minRes + r.Range(0, 1000),
			Version:       int64(r.Intn(10)),
		}
	}
	return out
}

// Point returns a random point inside b.
func (r *RNG) Point(b orb.Bound) orb.Point {
	return orb.Point{r.Range(b.Min.X(), b.Max.X()), r.Range(b.Min.Y(), b.Max.Y())}
}

// Geometry returns a random point, line string or polygon inside b.
func (r *RNG) Geometry(b orb.Bound) orb.Geometry {
	switch r.Intn(3) {
	case 0:
		return r.Point(b)
	case 1:
		ls := make(orb.LineString, 2+r.Intn(4))
		for i := range ls {
			ls[i] = r.Point(b)
		}
		return ls
	default:
		c := r.Point(b)
		ring := orb.Ring{c, {c.X() + 0.01, c.Y()}, {c.X() + 0.01, c.Y() + 0.01}, c}
		return orb.Polygon{ring}
	}
}

// Style returns a random OGR style.
func (r *RNG) Style() *style.Style {
	return &style.Style{Tools: []style.Tool{
		{Name: "PEN", Params: []style.Param{
			{Key: "c", Value: fmt.Sprintf("#%06X", r.Intn(0xFFFFFF))},
			{Key: "w", Value: fmt.Sprintf("%dpx", 1+r.Intn(5))},
		}},
		{Name: "LABEL", Params: []style.Param{
			{Key: "t", Value: r.String(6), Quoted: true},
		}},
	}}
}

// Attributes returns a set holding one value of every kind, including a
// nested set two levels deep and empty arrays.
func (r *RNG) Attributes() *attribute.Set {
	inner := attribute.NewSet()
	inner.Put("depth", attribute.Int32(2))
	inner.Put("tags", attribute.StringArray([]string{r.String(3), ""}))

	nested := attribute.NewSet()
	nested.Put("depth", attribute.Int32(1))
	nested.Put("inner", attribute.Nested(inner))

	s := attribute.NewSet()
	s.Put("null", attribute.Null())
	s.Put("i32", attribute.Int32(int32(r.Intn(1<<30))-1<<29))
	s.Put("i64", attribute.Int64(r.Int63()))
	s.Put("f64", attribute.Float64(r.Range(-1e6, 1e6)))
	s.Put("str", attribute.String(r.String(8)))
	s.Put("bytes", attribute.Bytes(r.Bytes(r.Intn(16))))
	s.Put("i32s", attribute.Int32Array([]int32{int32(r.Intn(100)), -1}))
	s.Put("i64s", attribute.Int64Array([]int64{}))
	s.Put("f64s", attribute.Float64Array([]float64{r.Float64(), 0.5}))
	s.Put("strs", attribute.StringArray([]string{r.String(2), r.String(5)}))
	s.Put("blobs", attribute.BytesArray([][]byte{r.Bytes(3), {}}))
	s.Put("nested", attribute.Nested(nested))
	return s
}
