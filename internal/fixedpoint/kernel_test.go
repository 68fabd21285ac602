package fixedpoint

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv_Basic(t *testing.T) {
	a := uint256.NewInt(1_000_000)
	b := uint256.NewInt(3)
	d := uint256.NewInt(7)
	got, err := MulDiv(a, b, d)
	require.NoError(t, err)
	assert.Equal(t, uint64(428571), got.Uint64())
}

func TestMulDivRoundingUp_RoundsAwayFromZero(t *testing.T) {
	a := uint256.NewInt(1)
	b := uint256.NewInt(1)
	d := uint256.NewInt(3)
	got, err := MulDivRoundingUp(a, b, d)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Uint64())

	exact, err := MulDivRoundingUp(uint256.NewInt(6), uint256.NewInt(1), uint256.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), exact.Uint64())
}

func TestMulDiv_DivisionByZero(t *testing.T) {
	_, err := MulDiv(uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(0))
	assert.Error(t, err)
}

func TestAddChecked_Overflow(t *testing.T) {
	_, err := AddChecked(MaxUint256(), uint256.NewInt(1))
	assert.Error(t, err)
}

func TestSubChecked_Underflow(t *testing.T) {
	_, err := SubChecked(uint256.NewInt(1), uint256.NewInt(2))
	assert.Error(t, err)
}

func TestMulChecked_Overflow(t *testing.T) {
	_, err := MulChecked(MaxUint256(), uint256.NewInt(2))
	assert.Error(t, err)
}

func TestDivRoundingUp(t *testing.T) {
	got, err := DivRoundingUp(uint256.NewInt(10), uint256.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), got.Uint64())

	exact, err := DivRoundingUp(uint256.NewInt(9), uint256.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), exact.Uint64())
}
