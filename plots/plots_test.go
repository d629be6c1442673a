package plots

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDutyCycleHistogramWritesPNG(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = float64(i%37) / 50
	}
	path := filepath.Join(t.TempDir(), "figure_0_100.png")
	require.NoError(t, DutyCycleHistogram(values, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	// PNG signature
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	sig := make([]byte, 8)
	_, err = f.Read(sig)
	require.NoError(t, err)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, sig)
}

// Bin edges are fixed, not derived from the data's range, so histograms from
// different epochs line up.
func TestFixedBinsLayout(t *testing.T) {
	bins := fixedBins([]float64{0.001, 0.001, 0.4982, -0.1, 2.0})
	require.Len(t, bins, histBins)

	width := histMax / histBins
	for i, b := range bins {
		require.InDeltaf(t, float64(i)*width, b.Min, 1e-12, "bin %d min", i)
		require.InDeltaf(t, float64(i+1)*width, b.Max, 1e-12, "bin %d max", i)
	}

	require.Equal(t, 3.0, bins[0].Weight)          // two in-range values plus the low outlier
	require.Equal(t, 1.0, bins[124].Weight)        // 0.4982 falls in [0.496, 0.5)
	require.Equal(t, 1.0, bins[histBins-1].Weight) // high outlier clamps to the last bin

	narrow := fixedBins([]float64{0.2, 0.21})
	require.Equal(t, bins[0].Min, narrow[0].Min)
	require.Equal(t, bins[histBins-1].Max, narrow[histBins-1].Max)
}
