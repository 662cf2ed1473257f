package ratings

// Aggregate returns the field-wise arithmetic mean of scores. An empty input
// yields all-zero averages and a zero count.
func Aggregate(scores []Scores) Averages {
	if len(scores) == 0 {
		return Averages{}
	}

	var sum [6]int
	for _, s := range scores {
		sum[0] += s.Mobility
		sum[1] += s.Visual
		sum[2] += s.Hearing
		sum[3] += s.Toilet
		sum[4] += s.Parking
		sum[5] += s.GuideDog
	}

	n := float64(len(scores))
	return Averages{
		Mobility: float64(sum[0]) / n,
		Visual:   float64(sum[1]) / n,
		Hearing:  float64(sum[2]) / n,
		Toilet:   float64(sum[3]) / n,
		Parking:  float64(sum[4]) / n,
		GuideDog: float64(sum[5]) / n,
		Count:    len(scores),
	}
}
