package model

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/hupe1980/geocache/attribute"
	"github.com/hupe1980/geocache/style"
)

// Feature is a single geospatial feature.
//
// Name, Geometry, Style and Attributes are optional; nil means absent.
type Feature struct {
	FeatureSetID int64
	ID           int64
	Name         *string
	Geometry     orb.Geometry
	Style        *style.Style
	Attributes   *attribute.Set
	Timestamp    int64
	Version      int64
}

// String returns a short description of the feature.
func (f *Feature) String() string {
	name := "<nil>"
	if f.Name != nil {
		name = *f.Name
	}
	return fmt.Sprintf("Feature(%d/%d %q v%d)", f.FeatureSetID, f.ID, name, f.Version)
}

// FeatureSet groups features sharing a provider, type and resolution range.
type FeatureSet struct {
	ID            int64
	Provider      string
	Type          string
	Name          string
	MinResolution float64
	MaxResolution float64
	Version       int64
}

// String returns a short description of the feature set.
func (fs *FeatureSet) String() string {
	return fmt.Sprintf("FeatureSet(%d %s/%s %q v%d)", fs.ID, fs.Provider, fs.Type, fs.Name, fs.Version)
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
