package heading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	cases := []struct {
		name string
		x, y float64
		decl float64
		want float64
	}{
		{"north", 1, 0, 0, 0},
		{"east", 0, 1, 0, 90},
		{"south", -1, 0, 0, 180},
		{"west", 0, -1, 0, 270},
		{"northeast", 1, 1, 0, 45},
		{"east declination", 1, 0, 3.5, 3.5},
		{"west declination wraps", 1, 0, -10, 350},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, Compute(tc.x, tc.y, tc.decl), 1e-9)
		})
	}
}

func TestNormalize(t *testing.T) {
	require.InDelta(t, 10.0, Normalize(370), 1e-9)
	require.InDelta(t, 350.0, Normalize(-10), 1e-9)
	require.InDelta(t, 0.0, Normalize(720), 1e-9)
}

func TestNorm(t *testing.T) {
	require.InDelta(t, 5.0, Norm(3, 4, 0), 1e-9)
	require.InDelta(t, 0.0, Norm(0, 0, 0), 1e-9)
}
