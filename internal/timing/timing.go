// Package timing implements the trial/stimulus reconciliation math: snapping
// trial change times onto the stimulus clock and recomputing the behavioral
// statistics that depend on them.
//
// The trial table and the stimulus presentation table come from two
// independently recorded event streams whose timestamps drift slightly, so a
// trial's recorded change time rarely equals any presentation start time
// exactly. Snapping aligns the two streams; latency, reward rate, and the
// response flag are then recomputed from the aligned times.
//
// NaN marks missing values in float64 slices throughout, mirroring the
// source tables.
package timing

import (
	"fmt"
	"math"
	"sort"

	"github.com/Laura-lc/AllenSDK/internal/constants"
)

// SnapToNext maps each time to the first value in starts that is greater than
// or equal to it. starts must be sorted ascending. Times past the final start,
// and NaN times, map to NaN.
func SnapToNext(times, starts []float64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		if math.IsNaN(t) {
			out[i] = math.NaN()
			continue
		}
		idx := sort.SearchFloat64s(starts, t)
		if idx == len(starts) {
			out[i] = math.NaN()
			continue
		}
		out[i] = starts[idx]
	}
	return out
}

// ContainsTime reports whether t equals some value in the ascending slice
// starts. NaN is never contained.
func ContainsTime(starts []float64, t float64) bool {
	if math.IsNaN(t) {
		return false
	}
	idx := sort.SearchFloat64s(starts, t)
	return idx < len(starts) && starts[idx] == t
}

// ResponseLatency returns each trial's first lick time minus its change time.
// Trials with no licks or a NaN change time get NaN.
func ResponseLatency(lickTimes [][]float64, changeTimes []float64) ([]float64, error) {
	if len(lickTimes) != len(changeTimes) {
		return nil, fmt.Errorf("lick times length %d does not match change times length %d",
			len(lickTimes), len(changeTimes))
	}
	out := make([]float64, len(changeTimes))
	for i := range out {
		if len(lickTimes[i]) == 0 || math.IsNaN(changeTimes[i]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = lickTimes[i][0] - changeTimes[i]
	}
	return out, nil
}

// RewardRateOptions parameterize the rolling reward rate estimate.
type RewardRateOptions struct {
	// ResponseWindowSec is the latency bound under which a response counts
	// as correct.
	ResponseWindowSec float64
	// TrialWindow is the number of trials included on each side of the
	// current trial.
	TrialWindow int
	// InitialTrials is the number of leading trials seeded to +Inf.
	InitialTrials int
}

// DefaultRewardRateOptions returns the standard reward rate parameters.
func DefaultRewardRateOptions() RewardRateOptions {
	return RewardRateOptions{
		ResponseWindowSec: constants.RewardRateResponseWindowSec,
		TrialWindow:       constants.RewardRateTrialWindow,
		InitialTrials:     constants.RewardRateInitialTrials,
	}
}

// RewardRate computes a rolling rewards-per-minute estimate for each trial.
//
// The first InitialTrials entries are seeded to +Inf so early trials always
// count as engaged. For each later trial i, the estimate looks at trials
// [max(0, i-TrialWindow), min(i+TrialWindow, n)), counts responses with
// latency below ResponseWindowSec (NaN latencies never count), and divides by
// the elapsed start-time span of that window in minutes. Division follows
// IEEE semantics: a zero span yields +Inf (or NaN with zero correct
// responses).
func RewardRate(latency, startTime []float64, opts RewardRateOptions) ([]float64, error) {
	if len(latency) != len(startTime) {
		return nil, fmt.Errorf("latency length %d does not match start time length %d",
			len(latency), len(startTime))
	}

	n := len(latency)
	out := make([]float64, n)

	initial := opts.InitialTrials
	if initial > n {
		initial = n
	}
	for i := 0; i < initial; i++ {
		out[i] = math.Inf(1)
	}

	for i := initial; i < n; i++ {
		lo := i - opts.TrialWindow
		if lo < 0 {
			lo = 0
		}
		hi := i + opts.TrialWindow
		if hi > n {
			hi = n
		}

		correct := 0
		for j := lo; j < hi; j++ {
			// NaN < window is false, so missing latencies never count.
			if latency[j] < opts.ResponseWindowSec {
				correct++
			}
		}

		elapsed := startTime[hi-1] - startTime[lo]
		out[i] = float64(correct) / elapsed * 60
	}

	return out, nil
}

// ResponseBinary reports, per trial, whether the subject responded at all:
// a hit or a false alarm.
func ResponseBinary(hit, falseAlarm []bool) ([]bool, error) {
	if len(hit) != len(falseAlarm) {
		return nil, fmt.Errorf("hit length %d does not match false alarm length %d",
			len(hit), len(falseAlarm))
	}
	out := make([]bool, len(hit))
	for i := range out {
		out[i] = hit[i] || falseAlarm[i]
	}
	return out, nil
}
