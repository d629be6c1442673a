package suite

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeExperiment records the lifecycle calls it receives.
type fakeExperiment struct {
	calls []string
}

func (f *fakeExperiment) Setup(p Params, rep int) error {
	f.calls = append(f.calls, "setup")
	return nil
}

func (f *fakeExperiment) Iterate(p Params, rep, iter int) (Result, error) {
	f.calls = append(f.calls, "iterate")
	return Result{"elapsedTime": float64(iter)}, nil
}

func (f *fakeExperiment) Finalize(p Params, rep int) error {
	f.calls = append(f.calls, "finalize")
	return nil
}

func testParams(t *testing.T) Params {
	p := DefaultParams()
	p.Path = t.TempDir()
	p.Name = "unit"
	p.Iterations = 3
	return p
}

func TestRunnerLifecycleOrder(t *testing.T) {
	fake := &fakeExperiment{}
	r := Runner{Params: testParams(t), Repetitions: 2, Experiment: fake}
	require.NoError(t, r.Run())
	require.Equal(t, []string{
		"setup", "iterate", "iterate", "iterate", "finalize",
		"setup", "iterate", "iterate", "iterate", "finalize",
	}, fake.calls)
}

func TestRunnerPersistsResults(t *testing.T) {
	p := testParams(t)
	r := Runner{Params: p, Experiment: &fakeExperiment{}}
	require.NoError(t, r.Run())

	f, err := os.Open(filepath.Join(p.Path, p.Name, "results.json"))
	require.NoError(t, err)
	defer f.Close()

	var lines int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec struct {
			RunID      string `json:"run_id"`
			Repetition int    `json:"repetition"`
			Iteration  int    `json:"iteration"`
			Metrics    Result `json:"metrics"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		_, err := uuid.Parse(rec.RunID)
		require.NoError(t, err, "run_id should be a uuid")
		require.Equal(t, lines, rec.Iteration)
		require.Contains(t, rec.Metrics, "elapsedTime")
		lines++
	}
	require.NoError(t, sc.Err())
	require.Equal(t, p.Iterations, lines)
}

func TestRunnerDefaultsToOneRepetition(t *testing.T) {
	fake := &fakeExperiment{}
	p := testParams(t)
	p.Iterations = 1
	r := Runner{Params: p, Experiment: fake}
	require.NoError(t, r.Run())
	require.Equal(t, []string{"setup", "iterate", "finalize"}, fake.calls)
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	require.Equal(t, 64, p.BatchSize)
	require.Equal(t, 500, p.N)
	require.Equal(t, 50, p.K)
	require.Greater(t, p.KInferenceFactor, 1.0)
	require.True(t, p.WeightSparsity > 0 && p.WeightSparsity <= 1)
}
