package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewULID(t *testing.T) {
	id, err := NewULID()
	require.NoError(t, err)
	require.Len(t, id, 26)
	require.NoError(t, ValidateULID(id))
}

func TestNewULIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewULID()
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate ULID %s", id)
		seen[id] = true
	}
}

func TestValidateULIDRejectsMalformed(t *testing.T) {
	for _, value := range []string{
		"",
		"not-a-ulid",
		"01HQZX3Y4K6F7G8H9J0K1M2N3",   // too short
		"01HQZX3Y4K6F7G8H9J0K1M2N3PQ", // too long
		"01HQZX3Y4K6F7G8H9J0K1M2NIL",  // excluded characters
	} {
		require.ErrorIs(t, ValidateULID(value), ErrInvalidULID, "value %q", value)
	}
}

func TestValidateULIDAcceptsCanonical(t *testing.T) {
	require.NoError(t, ValidateULID("01HQZX3Y4K6F7G8H9J0K1M2N3P"))
}
