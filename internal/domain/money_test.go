package domain_test

import (
	"testing"

	"ctspark-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKobo_String(t *testing.T) {
	assert.Equal(t, "₦5,000", domain.Kobo(500000).String())
	assert.Equal(t, "₦400", domain.Kobo(40000).String())
	assert.Equal(t, "₦1,000,000", domain.Kobo(100000000).String())
	assert.Equal(t, "₦2,150.50", domain.Kobo(215050).String())
	assert.Equal(t, "₦0", domain.Kobo(0).String())
	assert.Equal(t, "-₦12.05", domain.Kobo(-1205).String())
	assert.Equal(t, "-₦1,234,567.08", domain.Kobo(-123456708).String())
}

func TestParseNaira(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		k, err := domain.ParseNaira("5000")
		require.NoError(t, err)
		assert.Equal(t, domain.Kobo(500000), k)
	})

	t.Run("Formatted", func(t *testing.T) {
		k, err := domain.ParseNaira("₦2,150.50")
		require.NoError(t, err)
		assert.Equal(t, domain.Kobo(215050), k)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := domain.ParseNaira("five")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = domain.ParseNaira(" ")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestFromNaira(t *testing.T) {
	assert.Equal(t, domain.Kobo(1999), domain.FromNaira(19.99))
	assert.Equal(t, 50.0, domain.Kobo(5000).Naira())
}
