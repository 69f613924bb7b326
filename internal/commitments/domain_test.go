package commitments_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thejar/jar/internal/commitments"
)

func TestWeekStartOf(t *testing.T) {
	// Wednesday 2026-08-26 belongs to the week starting Monday 2026-08-24.
	wed := time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), commitments.WeekStartOf(wed))

	// Sunday rolls back to the preceding Monday, not forward.
	sun := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), commitments.WeekStartOf(sun))

	// Monday is its own week start.
	mon := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	require.Equal(t, mon, commitments.WeekStartOf(mon))
}
