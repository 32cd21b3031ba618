package cachefile

import (
	"fmt"

	"github.com/paulmach/orb/encoding/wkb"

	"github.com/hupe1980/geocache/model"
	"github.com/hupe1980/geocache/style"
)

// featureFixedSize covers fsid, id, version and timestamp.
const featureFixedSize = 32

func writeFeature(s *writeStream, f *model.Feature) error {
	if err := s.ensureWritable(featureFixedSize); err != nil {
		return err
	}
	s.putInt64(f.FeatureSetID)
	s.putInt64(f.ID)
	s.putInt64(f.Version)
	s.putInt64(f.Timestamp)

	if err := writeString(s, f.Name); err != nil {
		return fmt.Errorf("feature %d name: %w", f.ID, err)
	}

	if f.Geometry == nil {
		if err := s.ensureWritable(4); err != nil {
			return err
		}
		s.putInt32(0)
	} else {
		b, err := wkb.Marshal(f.Geometry, s.order)
		if err != nil {
			return fmt.Errorf("feature %d geometry: %w", f.ID, err)
		}
		if err := s.ensureWritable(4 + len(b)); err != nil {
			return err
		}
		s.putInt32(int32(len(b)))
		s.putBytes(b)
	}

	var ogr *string
	if f.Style != nil {
		packed := f.Style.String()
		ogr = &packed
	}
	if err := writeString(s, ogr); err != nil {
		return fmt.Errorf("feature %d style: %w", f.ID, err)
	}

	return writeAttributes(s, f.Attributes)
}

func readFeature(s *readStream) (*model.Feature, error) {
	if err := s.ensureReadable(featureFixedSize); err != nil {
		return nil, err
	}
	f := &model.Feature{
		FeatureSetID: s.int64(),
		ID:           s.int64(),
		Version:      s.int64(),
		Timestamp:    s.int64(),
	}

	var err error
	if f.Name, err = readString(s); err != nil {
		return nil, err
	}

	if err := s.ensureReadable(4); err != nil {
		return nil, err
	}
	off := s.position()
	wkbLen := s.int32()
	if wkbLen < 0 {
		return nil, corruptf("negative geometry length %d at offset %d", wkbLen, off)
	}
	if wkbLen > 0 {
		if err := s.ensureReadable(int(wkbLen)); err != nil {
			return nil, err
		}
		if f.Geometry, err = wkb.Unmarshal(s.take(int(wkbLen))); err != nil {
			return nil, fmt.Errorf("%w: feature %d geometry: %w", ErrCorrupt, f.ID, err)
		}
	}

	ogr, err := readString(s)
	if err != nil {
		return nil, err
	}
	if ogr != nil {
		if f.Style, err = style.Parse(*ogr); err != nil {
			return nil, fmt.Errorf("%w: feature %d style: %w", ErrCorrupt, f.ID, err)
		}
	}

	if f.Attributes, err = readAttributes(s); err != nil {
		return nil, err
	}
	return f, nil
}

func writeFeatureSet(s *writeStream, fs *model.FeatureSet) error {
	if err := s.ensureWritable(16); err != nil {
		return err
	}
	s.putInt64(fs.ID)
	s.putInt64(fs.Version)
	for _, str := range []string{fs.Provider, fs.Type, fs.Name} {
		if err := writeStringValue(s, str); err != nil {
			return fmt.Errorf("feature set %d: %w", fs.ID, err)
		}
	}
	if err := s.ensureWritable(16); err != nil {
		return err
	}
	s.putFloat64(fs.MinResolution)
	s.putFloat64(fs.MaxResolution)
	return nil
}

func readFeatureSet(s *readStream) (*model.FeatureSet, error) {
	if err := s.ensureReadable(16); err != nil {
		return nil, err
	}
	fs := &model.FeatureSet{
		ID:      s.int64(),
		Version: s.int64(),
	}
	var err error
	if fs.Provider, err = readStringValue(s); err != nil {
		return nil, err
	}
	if fs.Type, err = readStringValue(s); err != nil {
		return nil, err
	}
	if fs.Name, err = readStringValue(s); err != nil {
		return nil, err
	}
	if err := s.ensureReadable(16); err != nil {
		return nil, err
	}
	fs.MinResolution = s.float64()
	fs.MaxResolution = s.float64()
	return fs, nil
}
