package shapesheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitUnitLiteral(t *testing.T) {
	tests := []struct {
		in    string
		value float64
		unit  UnitCode
		ok    bool
	}{
		{"8 pt", 8, UnitPoints, true},
		{"=2.5in", 2.5, UnitInches, true},
		{" -30 deg ", -30, UnitDegrees, true},
		{"10 mm", 10, UnitMillimeters, true},
		{"1 ft", 1, UnitFeet, true},
		{"12", 0, 0, false},
		{"Width*2", 0, 0, false},
		{"8 furlongs", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, u, ok := SplitUnitLiteral(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.value, v)
			assert.Equal(t, tt.unit, u)
		})
	}
}

func TestUnitCode(t *testing.T) {
	assert.Equal(t, "pt", UnitPoints.String())
	assert.Equal(t, "unit(7)", UnitCode(7).String())
	assert.Equal(t, 72.0, UnitPoints.PerInch())
	assert.Equal(t, 1.0, UnitDegrees.PerInch())

	u, ok := ParseUnit("inch")
	require.True(t, ok)
	assert.Equal(t, UnitInches, u)
	_, ok = ParseUnit("parsec")
	assert.False(t, ok)
}

func TestResultKind(t *testing.T) {
	assert.Equal(t, ResultInt, KindOf[int32]())
	assert.Equal(t, ResultFloat, KindOf[float64]())
	assert.Equal(t, ResultString, KindOf[string]())
	assert.False(t, ResultKind(0).Valid())
	assert.Equal(t, "ResultKind(9)", ResultKind(9).String())
}

func TestCellAddress(t *testing.T) {
	a, err := ParseCellAddress("(1,1,0)")
	require.NoError(t, err)
	assert.Equal(t, PinX, a)
	assert.Equal(t, "PinX", a.Name())
	assert.Equal(t, "(1,1,0)", a.String())

	b, err := ParseCellAddress(" 3, 2 ,7")
	require.NoError(t, err)
	assert.Equal(t, CharSize.WithRow(2), b)
	assert.Equal(t, "", b.Name(), "only row 0 of a section is catalogued")

	for _, bad := range []string{"", "1,2", "a,b,c", "1,1,99999"} {
		_, err := ParseCellAddress(bad)
		assert.Error(t, err, bad)
	}

	assert.Equal(t, "shape 4 (1,1,0)", ShapeCell{ShapeID: 4, Address: PinX}.String())
}

func TestCatalog(t *testing.T) {
	a, ok := LookupCell("DrawingScale")
	require.True(t, ok)
	assert.Equal(t, DrawScale, a)

	_, ok = LookupCell("Nope")
	assert.False(t, ok)

	names := CellNames()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "TxtVerticalAlign")

	assert.False(t, IsRepeatingSection(SectionObject))
	assert.True(t, IsRepeatingSection(SectionUser))
}
