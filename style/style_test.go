package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	s, err := Parse(`PEN(c:#FF0000,w:2px);BRUSH(fc:#00FF0080);LABEL(f:"Arial",t:"a, b")`)
	require.NoError(t, err)
	require.Len(t, s.Tools, 3)

	pen, ok := s.Tool("pen")
	require.True(t, ok)
	c, _ := pen.Param("c")
	assert.Equal(t, "#FF0000", c)

	label, ok := s.Tool("LABEL")
	require.True(t, ok)
	text, _ := label.Param("t")
	assert.Equal(t, "a, b", text)

	_, ok = s.Tool("SYMBOL")
	assert.False(t, ok)
}

func TestPackRoundTrip(t *testing.T) {
	inputs := []string{
		`PEN(c:#FF0000,w:2px)`,
		`SYMBOL(id:"ogr-sym-3",c:#0000FF);LABEL(t:"say \"hi\"")`,
		`@roads`,
		`@roads;PEN(c:#000000)`,
		`BRUSH()`,
		`LABEL(t:"C:\\")`,
		`LABEL(t:"C:\path\to")`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			s, err := Parse(in)
			require.NoError(t, err)
			again, err := Parse(s.String())
			require.NoError(t, err)
			assert.Equal(t, s, again)
		})
	}
}

func TestPackEscapesBackslash(t *testing.T) {
	tests := []struct {
		value  string
		packed string
	}{
		{`C:\`, `LABEL(t:"C:\\")`},
		{`a\"b`, `LABEL(t:"a\\\"b")`},
		{`\\`, `LABEL(t:"\\\\")`},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			s := &Style{Tools: []Tool{{Name: "LABEL", Params: []Param{{Key: "t", Value: tt.value, Quoted: true}}}}}
			assert.Equal(t, tt.packed, s.String())

			again, err := Parse(s.String())
			require.NoError(t, err)
			got, _ := again.Tools[0].Param("t")
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{`PEN(c:#FF0000`, `PEN`, `PEN(c)`, `PEN(c:1)x`, `(c:1)`} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrSyntax, in)
	}
}
