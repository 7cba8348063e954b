package forecast

import "math"

// Level is the qualitative surf rating.
type Level string

const (
	LevelPoor      Level = "poor"
	LevelFair      Level = "fair"
	LevelGood      Level = "good"
	LevelExcellent Level = "excellent"
)

// Weights of the subscores in the overall score.
const (
	waveWeight   = 0.45
	periodWeight = 0.35
	chopWeight   = 0.20
)

// ScoreParts are the rounded subscores, each in [0,100].
type ScoreParts struct {
	Wave   int `json:"waveScore"`
	Period int `json:"periodScore"`
	Chop   int `json:"chopScore"`
}

// ScoreResult is the surf quality of one slot.
type ScoreResult struct {
	Overall int        `json:"overall"`
	Level   Level      `json:"level"`
	Parts   ScoreParts `json:"parts"`
}

// Score rates a slot from wave height in feet, wave period in seconds and
// wind-wave (chop) height in meters. Unknown inputs score 0 for their part.
func Score(waveFt, periodSec, windChopM Value) ScoreResult {
	wave := WaveScore(waveFt)
	period := PeriodScore(periodSec)
	chop := ChopScore(windChopM)

	overall := int(math.Round(wave*waveWeight + period*periodWeight + chop*chopWeight))
	overall = clampInt(overall, 0, 100)

	return ScoreResult{
		Overall: overall,
		Level:   LevelFor(overall),
		Parts: ScoreParts{
			Wave:   int(math.Round(wave)),
			Period: int(math.Round(period)),
			Chop:   int(math.Round(chop)),
		},
	}
}

// ScoreSlot scores a slot of an aligned series. Wave height is converted to
// feet without rounding.
func ScoreSlot(slot Slot) ScoreResult {
	return Score(metersToRawFeet(slot.WaveHeight), slot.WavePeriod, slot.WindWaveHeight)
}

// WaveScore peaks between 3 and 6 ft and penalizes both flat and oversized surf.
func WaveScore(waveFt Value) float64 {
	ft, ok := waveFt.Get()
	if !ok {
		return 0
	}
	switch {
	case ft <= 1:
		return 10
	case ft >= 12:
		return 30
	case ft < 3:
		return 40 + (ft-1)*20
	case ft <= 6:
		return 70 + (ft-3)*10
	default:
		return math.Max(30, 70-(ft-6)*8)
	}
}

// PeriodScore maps 5s..16s linearly onto 0..100.
func PeriodScore(periodSec Value) float64 {
	p, ok := periodSec.Get()
	if !ok {
		return 0
	}
	p = clamp(p, 5, 16)
	return (p - 5) / (16 - 5) * 100
}

// ChopScore maps 0m..1.5m of wind-wave height onto 100..0.
func ChopScore(windChopM Value) float64 {
	c, ok := windChopM.Get()
	if !ok {
		return 0
	}
	c = clamp(c, 0, 1.5)
	return (1 - c/1.5) * 100
}

// LevelFor buckets an overall score. Each band includes its lower bound.
func LevelFor(overall int) Level {
	switch {
	case overall >= 80:
		return LevelExcellent
	case overall >= 60:
		return LevelGood
	case overall >= 40:
		return LevelFair
	default:
		return LevelPoor
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
