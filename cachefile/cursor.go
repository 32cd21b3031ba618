package cachefile

import (
	"iter"

	"github.com/hupe1980/geocache/model"
)

// Cursor iterates the feature records table once, in write order.
//
// The context's other lookups may be interleaved with a cursor; the cursor
// re-seeks to its own position when the shared stream was moved.
type Cursor struct {
	c      *Context
	strict bool
	next   int64
	gen    uint64
	idx    int
	n      int
	row    *model.Feature
	err    error
	done   bool
}

// Features returns a cursor over all feature records. A decode error ends the
// iteration like the end of the table does; Err stays nil. Use
// StrictFeatures to observe decode errors.
func (c *Context) Features() *Cursor {
	return c.newCursor(false)
}

// StrictFeatures returns a cursor that stops at the first decode error and
// reports it through Err.
func (c *Context) StrictFeatures() *Cursor {
	return c.newCursor(true)
}

func (c *Context) newCursor(strict bool) *Cursor {
	cur := &Cursor{c: c, strict: strict}
	md, err := c.Metadata()
	if err != nil {
		cur.fail(err)
		return cur
	}
	cur.n = md.NumFeatures
	cur.next = md.RecordsTableOffset
	if err := c.s.seek(cur.next); err != nil {
		cur.fail(err)
		return cur
	}
	cur.gen = c.s.gen
	return cur
}

func (cur *Cursor) fail(err error) {
	cur.done = true
	cur.row = nil
	if cur.strict {
		cur.err = err
	}
}

// Next advances to the next feature and reports whether one is available.
func (cur *Cursor) Next() bool {
	cur.row = nil
	if cur.done || cur.idx >= cur.n {
		cur.done = true
		return false
	}
	s := cur.c.s
	if cur.gen != s.gen {
		if err := s.seek(cur.next); err != nil {
			cur.fail(err)
			return false
		}
		cur.gen = s.gen
	}
	f, err := readFeature(s)
	if err != nil {
		cur.fail(err)
		return false
	}
	cur.next = s.position()
	cur.idx++
	cur.row = f
	return true
}

// Feature returns the current feature.
func (cur *Cursor) Feature() *model.Feature {
	return cur.row
}

// Err returns the decode error that ended a strict cursor.
func (cur *Cursor) Err() error {
	return cur.err
}

// All adapts the cursor to a range-over-func sequence. The error value is
// non-nil at most once, as the last element of a strict cursor.
func (cur *Cursor) All() iter.Seq2[*model.Feature, error] {
	return func(yield func(*model.Feature, error) bool) {
		for cur.Next() {
			if !yield(cur.Feature(), nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(nil, err)
		}
	}
}
