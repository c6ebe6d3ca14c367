package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())

	v, err = ParseAmount("0.000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "1", v.String())

	v, err = ParseAmount(" 2 ")
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", v.String())
}

func TestParseAmountRejects(t *testing.T) {
	_, err := ParseAmount("")
	assert.ErrorIs(t, err, ErrEmptyAmount)

	_, err = ParseAmount("-1")
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = ParseAmount("0.0000000000000000001")
	assert.ErrorIs(t, err, ErrTooPrecise)

	_, err = ParseAmount("abc")
	assert.Error(t, err)

	for _, s := range []string{"1e100000000", "2e60", "1E3", "0x10", "1.2.3", ".", "+1"} {
		_, err = ParseAmount(s)
		assert.ErrorContains(t, err, "not a plain decimal", s)
	}

	// 2^256-1 is the largest uint256.
	limit := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	base, err := ParseAmount(FormatAmount(limit))
	require.NoError(t, err)
	assert.Equal(t, limit, base)

	over := new(big.Int).Lsh(big.NewInt(1), 256)
	_, err = ParseAmount(FormatAmount(over))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestAmountRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "1.5", "0.01", "123456.789", "0.000000000000000001", "1000000"} {
		base, err := ParseAmount(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, FormatAmount(base), s)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(nil))
	assert.Equal(t, "2.25", FormatAmount(big.NewInt(2250000000000000000)))
}
