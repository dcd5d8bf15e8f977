package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTargetValue(t *testing.T) {
	require.Equal(t, 1300.0, targetValue(1000, 30))
	require.Equal(t, 1050.0, targetValue(1000, 5))
	require.Equal(t, 250.0, targetValue(250, 0))
}

func TestAccruedValue(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	maturity := start.AddDate(0, 0, 30)

	t.Run("before start returns principal", func(t *testing.T) {
		got := accruedValue(1000, 30, start, maturity, start.Add(-time.Hour))
		require.Equal(t, 1000.0, got)
	})

	t.Run("at start returns principal", func(t *testing.T) {
		got := accruedValue(1000, 30, start, maturity, start)
		require.Equal(t, 1000.0, got)
	})

	t.Run("halfway returns half the growth", func(t *testing.T) {
		got := accruedValue(1000, 30, start, maturity, start.AddDate(0, 0, 15))
		require.Equal(t, 1150.0, got)
	})

	t.Run("at maturity returns target", func(t *testing.T) {
		got := accruedValue(1000, 30, start, maturity, maturity)
		require.Equal(t, 1300.0, got)
	})

	t.Run("past maturity never exceeds target", func(t *testing.T) {
		got := accruedValue(1000, 30, start, maturity, maturity.AddDate(0, 0, 90))
		require.Equal(t, 1300.0, got)
	})

	t.Run("value is monotonic between ticks", func(t *testing.T) {
		previous := 0.0
		for day := 0; day <= 30; day++ {
			got := accruedValue(500, 12, start, maturity, start.AddDate(0, 0, day))
			require.GreaterOrEqual(t, got, previous)
			previous = got
		}
		require.Equal(t, 560.0, previous)
	})
}
