package sparsenet

import "gonum.org/v1/gonum/mat"

// NLLSum returns the summed negative log-likelihood of labels under logProbs.
func NLLSum(logProbs *mat.Dense, labels []int) float64 {
	var nll float64
	for r, lbl := range labels {
		nll -= logProbs.At(r, lbl)
	}
	return nll
}

// CountCorrect returns how many rows have their highest log probability at
// the labeled class.
func CountCorrect(logProbs *mat.Dense, labels []int) int {
	_, cols := logProbs.Dims()
	correct := 0
	for r, lbl := range labels {
		best := 0
		for c := 1; c < cols; c++ {
			if logProbs.At(r, c) > logProbs.At(r, best) {
				best = c
			}
		}
		if best == lbl {
			correct++
		}
	}
	return correct
}
