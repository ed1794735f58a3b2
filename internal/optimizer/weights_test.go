package optimizer

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSingleBoatWeights(t *testing.T) {
	t.Run("empty bag gives defaults", func(t *testing.T) {
		w, err := ParseSingleBoatWeights(nil)
		require.NoError(t, err)
		require.Equal(t, DefaultSingleBoatWeights(), w)
	})

	t.Run("overrides and unknown keys", func(t *testing.T) {
		w, err := ParseSingleBoatWeights(map[string]any{
			KeySidePreferencePenalty: 50,
			KeySternLoadingPenalty:   "7.5",
			KeyPowerVariancePenalty:  json.Number("0.2"),
			"something_else":         1,
		})
		require.NoError(t, err)
		require.Equal(t, 50.0, w.SidePreferencePenalty)
		require.Equal(t, 7.5, w.SternLoadingPenalty)
		require.Equal(t, 0.2, w.PowerVariancePenalty)
		require.Equal(t, 10.0, w.ExperienceMixingPenalty)
	})

	t.Run("invalid values are rejected together", func(t *testing.T) {
		_, err := ParseSingleBoatWeights(map[string]any{
			KeySidePreferencePenalty:   "abc",
			KeyExperienceMixingPenalty: -3,
		})
		require.ErrorIs(t, err, ErrInvalidWeight)
		require.Contains(t, err.Error(), KeySidePreferencePenalty)
		require.Contains(t, err.Error(), KeyExperienceMixingPenalty)
	})
}

func TestParseMultiBoatWeights(t *testing.T) {
	w, err := ParseMultiBoatWeights(map[string]any{KeyInterBoatVariancePenalty: 25.0})
	require.NoError(t, err)
	require.Equal(t, 25.0, w.InterBoatVariancePenalty)
	require.Equal(t, 1000.0, w.ExperienceMixingPenalty)

	_, err = ParseMultiBoatWeights(map[string]any{KeyDaysSinceBoatedPenalty: []int{1}})
	require.ErrorIs(t, err, ErrInvalidWeight)
}

func TestParseParameters(t *testing.T) {
	testCases := []struct {
		name    string
		bag     map[string]any
		wantErr bool
		check   func(t *testing.T, p Parameters)
	}{
		{
			name: "defaults",
			bag:  nil,
			check: func(t *testing.T, p Parameters) {
				require.Equal(t, DefaultParameters(), p)
			},
		},
		{
			name: "overrides",
			bag: map[string]any{
				"initial_temp":        500,
				"cooling_rate":        "0.9",
				"iterations_per_temp": 20.0,
				"cooling_schedule":    " Linear ",
			},
			check: func(t *testing.T, p Parameters) {
				require.Equal(t, 500.0, p.InitialTemp)
				require.Equal(t, 0.9, p.CoolingRate)
				require.Equal(t, 20, p.IterationsPerTemp)
				require.Equal(t, CoolingLinear, p.CoolingSchedule)
			},
		},
		{name: "fractional iterations", bag: map[string]any{"iterations_per_temp": 2.5}, wantErr: true},
		{name: "rate out of range", bag: map[string]any{"cooling_rate": 1.0}, wantErr: true},
		{name: "unknown schedule", bag: map[string]any{"cooling_schedule": "quadratic"}, wantErr: true},
		{name: "non numeric temp", bag: map[string]any{"initial_temp": "hot"}, wantErr: true},
		{name: "logarithmic accepts large rate", bag: map[string]any{"cooling_schedule": "logarithmic", "cooling_rate": 200}, check: func(t *testing.T, p Parameters) {
			require.Equal(t, CoolingLogarithmic, p.CoolingSchedule)
		}},
		{name: "infinite initial temp", bag: map[string]any{"initial_temp": "inf"}, wantErr: true},
		{name: "nan min temp", bag: map[string]any{"min_temp": "NaN"}, wantErr: true},
		{name: "infinite cooling rate", bag: map[string]any{"cooling_schedule": "logarithmic", "cooling_rate": "+Inf"}, wantErr: true},
		{name: "infinite iterations", bag: map[string]any{"iterations_per_temp": "inf"}, wantErr: true},
		{name: "logarithmic with default rate never cools", bag: map[string]any{"cooling_schedule": "logarithmic"}, wantErr: true},
		{name: "exponential rate too close to one", bag: map[string]any{"cooling_rate": 0.9999999}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ParseParameters(tc.bag)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameters)
				return
			}
			require.NoError(t, err)
			tc.check(t, p)
		})
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestEmptyWeightBagWarning(t *testing.T) {
	t.Run("parse warns about defaults", func(t *testing.T) {
		logs := captureLogs(t)
		_, err := ParseMultiBoatWeights(nil)
		require.NoError(t, err)
		require.Contains(t, logs.String(), "使用默认权重")
	})

	t.Run("merge keeps the given weights silently", func(t *testing.T) {
		logs := captureLogs(t)
		base := SingleBoatWeights{SidePreferencePenalty: 1, ExperienceMixingPenalty: 2, PowerVariancePenalty: 3, SternLoadingPenalty: 4, DaysSinceBoatedPenalty: 5}

		w, err := MergeSingleBoatWeights(base, map[string]any{})
		require.NoError(t, err)
		require.Equal(t, base, w)
		require.Empty(t, logs.String())
	})
}

func TestMergeParametersReportsKeysInOrder(t *testing.T) {
	bag := map[string]any{"min_temp": "cold", "initial_temp": "hot", "cooling_rate": "slow"}

	for i := 0; i < 20; i++ {
		_, err := MergeParameters(DefaultParameters(), bag)
		require.ErrorIs(t, err, ErrInvalidParameters)
		require.True(t, strings.Contains(err.Error(), "cooling_rate"), err.Error())
	}
}

func TestLogarithmicMinimumRate(t *testing.T) {
	p := DefaultParameters()
	p.CoolingSchedule = CoolingLogarithmic
	require.ErrorIs(t, p.Validate(), ErrInvalidParameters)

	p.CoolingRate = p.minLogarithmicRate() * 1.01
	require.NoError(t, p.Validate())

	// 最低降温系数下，maxTemperatureLevels 级之内一定降到 min_temp
	require.Equal(t, p.MinTemp, p.cool(p.InitialTemp, maxTemperatureLevels))
}
