package train

// BalancedAccuracy computes the mean per-class recall over flattened label
// sequences. Classes that never occur in the true labels are ignored. This
// matches how the decoding results are scored: every predicted phoneme is
// compared position-wise against the true phoneme, and rare phonemes count
// as much as common ones.
func BalancedAccuracy(yTrue, yPred [][]int) float64 {
	correct := make(map[int]int)
	total := make(map[int]int)
	for i := range yTrue {
		for t := range yTrue[i] {
			lab := yTrue[i][t]
			total[lab]++
			if i < len(yPred) && t < len(yPred[i]) && yPred[i][t] == lab {
				correct[lab]++
			}
		}
	}
	if len(total) == 0 {
		return 0
	}
	var sum float64
	for lab, n := range total {
		sum += float64(correct[lab]) / float64(n)
	}
	return sum / float64(len(total))
}
