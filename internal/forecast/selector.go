package forecast

// Candidate is the input to best-slot selection.
type Candidate struct {
	WaveHeight Value
	Period     Value
}

// PickBest returns the index of the candidate maximizing
// waveHeight*0.6 + period*0.4 in raw units. Unknown values count as 0 here.
// The first maximum wins. Returns false for no candidates.
//
// This is a lighter heuristic than Score and is only used for highlighting.
func PickBest(candidates []Candidate) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	best := 0
	bestScore := highlightScore(candidates[0])
	for i := 1; i < len(candidates); i++ {
		if s := highlightScore(candidates[i]); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, true
}

// PickBestSlot selects the best slot of a series using unrounded wave height
// in feet and period in seconds.
func PickBestSlot(series HourlySeries) (int, bool) {
	candidates := make([]Candidate, len(series.Slots))
	for i, slot := range series.Slots {
		candidates[i] = Candidate{
			WaveHeight: metersToRawFeet(slot.WaveHeight),
			Period:     slot.WavePeriod,
		}
	}
	return PickBest(candidates)
}

func highlightScore(c Candidate) float64 {
	return c.WaveHeight.OrZero()*0.6 + c.Period.OrZero()*0.4
}
