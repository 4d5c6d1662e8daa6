package train

import (
	"fmt"
	"math/rand"
	"sort"
)

// Fold is one train/test partition of the observation axis. The two index
// sets are disjoint, sorted, and together cover every observation.
type Fold struct {
	Train []int
	Test  []int
}

// KFoldSplits builds k randomized folds over n observations. Observations are
// shuffled once, then dealt into k nearly equal test sets; each fold's train
// set is everything outside its test set. Calling it again with the same rng
// state yields a fresh partition, which is how repetitions get distinct
// splits.
func KFoldSplits(n, k int, rng *rand.Rand) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("cannot split %d observations into %d folds", n, k)
	}

	perm := rng.Perm(n)
	folds := make([]Fold, k)
	// Spread the remainder over the first n%k folds.
	base, rem := n/k, n%k
	start := 0
	for f := 0; f < k; f++ {
		size := base
		if f < rem {
			size++
		}
		test := append([]int(nil), perm[start:start+size]...)
		train := make([]int, 0, n-size)
		train = append(train, perm[:start]...)
		train = append(train, perm[start+size:]...)
		sort.Ints(test)
		sort.Ints(train)
		folds[f] = Fold{Train: train, Test: test}
		start += size
	}
	return folds, nil
}

// ShuffleSplit produces a single randomized holdout split with the given test
// fraction. Used by the driver to reserve a final test set before
// cross-validation.
func ShuffleSplit(n int, testFrac float64, rng *rand.Rand) (train, test []int, err error) {
	if testFrac <= 0 || testFrac >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0, 1), got %v", testFrac)
	}
	nTest := int(float64(n) * testFrac)
	if nTest == 0 || nTest == n {
		return nil, nil, fmt.Errorf("test fraction %v leaves an empty split for %d observations", testFrac, n)
	}
	perm := rng.Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	sort.Ints(test)
	sort.Ints(train)
	return train, test, nil
}
