package datasets

import (
	"math"
	"math/rand"
	"testing"
)

func augmentFixtures() (x, prior, y Array) {
	x = NewArray(4, 2, 6)
	for i := range x.Data {
		x.Data[i] = float64(i)
	}
	prior = NewArray(4, 3, 5)
	y = NewArray(4, 3, 5)
	for i := 0; i < 4; i++ {
		for t := 0; t < 3; t++ {
			prior.Obs(i)[t*5+i%5] = 1
			y.Obs(i)[t*5+(i+1)%5] = 1
		}
	}
	return x, prior, y
}

func TestMixupAppendsConvexCombinations(t *testing.T) {
	x, prior, y := augmentFixtures()
	rng := rand.New(rand.NewSource(7))

	gx, gp, gy, err := Mixup(x, prior, y, 5, 0.4, rng)
	if err != nil {
		t.Fatalf("Mixup error: %v", err)
	}
	if gx.Len() != 9 || gp.Len() != 9 || gy.Len() != 9 {
		t.Fatalf("unexpected observation counts: %d %d %d", gx.Len(), gp.Len(), gy.Len())
	}

	// originals are untouched
	for i := 0; i < 4; i++ {
		for j, v := range x.Obs(i) {
			if gx.Obs(i)[j] != v {
				t.Fatalf("original observation %d modified", i)
			}
		}
	}

	// synthetic label rows stay on the probability simplex
	for i := 4; i < 9; i++ {
		obs := gy.Obs(i)
		for tt := 0; tt < 3; tt++ {
			var sum float64
			for c := 0; c < 5; c++ {
				v := obs[tt*5+c]
				if v < -1e-12 || v > 1+1e-12 {
					t.Fatalf("mixed label out of [0,1]: %v", v)
				}
				sum += v
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Fatalf("mixed label row does not sum to 1: %v", sum)
			}
		}
	}
}

func TestMixupErrors(t *testing.T) {
	x, prior, y := augmentFixtures()
	rng := rand.New(rand.NewSource(1))
	if _, _, _, err := Mixup(x, prior, y, 2, 0, rng); err == nil {
		t.Fatal("expected error for non-positive alpha")
	}
	short := NewArray(3, 2, 6)
	if _, _, _, err := Mixup(short, prior, y, 2, 0.2, rng); err == nil {
		t.Fatal("expected error for mismatched observation counts")
	}
}

func TestTimeJitterShapes(t *testing.T) {
	x, _, _ := augmentFixtures()
	rng := rand.New(rand.NewSource(3))

	out, err := TimeJitter(x, 2, rng)
	if err != nil {
		t.Fatalf("TimeJitter error: %v", err)
	}
	if out.Shape[0] != 4 || out.Shape[1] != 2 || out.Shape[2] != 2 {
		t.Fatalf("unexpected jittered shape: %v", out.Shape)
	}

	// every output window is a contiguous slice of the source channel
	for i := 0; i < 4; i++ {
		src := x.Obs(i)
		dst := out.Obs(i)
		found := false
		for off := 0; off <= 4; off++ {
			if dst[0] == src[off] && dst[1] == src[off+1] &&
				dst[2] == src[6+off] && dst[3] == src[6+off+1] {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("trial %d is not a contiguous time crop", i)
		}
	}
}

func TestCenterCropIsDeterministic(t *testing.T) {
	x, _, _ := augmentFixtures()

	a, err := CenterCrop(x, 1)
	if err != nil {
		t.Fatalf("CenterCrop error: %v", err)
	}
	b, _ := CenterCrop(x, 1)
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatal("CenterCrop must be deterministic")
		}
	}
	// offset is exactly maxJitter
	if a.Obs(0)[0] != x.Obs(0)[1] {
		t.Fatalf("center crop offset wrong: got %v want %v", a.Obs(0)[0], x.Obs(0)[1])
	}
}

func TestCropTimeErrors(t *testing.T) {
	x, _, _ := augmentFixtures()
	rng := rand.New(rand.NewSource(3))
	if _, err := TimeJitter(x, 3, rng); err == nil {
		t.Fatal("expected error when jitter consumes all timepoints")
	}
	if _, err := CenterCrop(NewArray(2, 4), 1); err == nil {
		t.Fatal("expected error for non 3-D array")
	}
}

func TestSampleBetaRange(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		v := sampleBeta(0.2, 0.2, rng)
		if v < 0 || v > 1 || math.IsNaN(v) {
			t.Fatalf("beta sample out of range: %v", v)
		}
	}
}
