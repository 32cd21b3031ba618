package geocache

import (
	"context"
	"iter"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/hupe1980/geocache/attribute"
	"github.com/hupe1980/geocache/codec"
	"github.com/hupe1980/geocache/model"
)

// GeoJSON property names written by FeatureCollection.
const (
	PropFeatureSetID = "featureSetId"
	PropName         = "name"
	PropStyle        = "style"
	PropTimestamp    = "timestamp"
	PropVersion      = "version"
	PropAttributes   = "attributes"
)

// ExportOptions filters FeatureCollection.
type ExportOptions struct {
	// Bound keeps only features whose geometry bound intersects it.
	Bound *orb.Bound
	// Limit caps the number of exported features when positive.
	Limit int
}

// FeatureCollection converts a feature sequence to GeoJSON. Features without
// geometry are exported with a null geometry unless a Bound is set.
func FeatureCollection(ctx context.Context, features iter.Seq2[*model.Feature, error], opts ExportOptions) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	q := model.FeatureQuery{SpatialFilter: opts.Bound}

	for f, err := range features {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !q.Matches(f) {
			continue
		}
		fc.Append(toGeoJSON(f))
		if opts.Limit > 0 && len(fc.Features) >= opts.Limit {
			break
		}
	}
	return fc, nil
}

func toGeoJSON(f *model.Feature) *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry)
	gf.ID = f.ID
	gf.Properties[PropFeatureSetID] = f.FeatureSetID
	gf.Properties[PropTimestamp] = f.Timestamp
	gf.Properties[PropVersion] = f.Version
	if f.Name != nil {
		gf.Properties[PropName] = *f.Name
	}
	if f.Style != nil {
		gf.Properties[PropStyle] = f.Style.String()
	}
	if f.Attributes != nil {
		gf.Properties[PropAttributes] = attribute.ToMap(f.Attributes)
	}
	return gf
}

// EncodeGeoJSON marshals fc with c, or codec.Default when c is nil.
func EncodeGeoJSON(fc *geojson.FeatureCollection, c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	return c.Marshal(fc)
}

// GeoJSON exports the node's features as an encoded GeoJSON feature collection.
func (n *Node) GeoJSON(ctx context.Context, c codec.Codec, opts ExportOptions) ([]byte, error) {
	fc, err := FeatureCollection(ctx, n.StrictFeatures(ctx), opts)
	if err != nil {
		return nil, err
	}
	return EncodeGeoJSON(fc, c)
}
