package segmenter

import (
	"math"
	"testing"
)

func TestApplyConfidenceFloor(t *testing.T) {
	seg := &Segmentation{
		Width:       2,
		Height:      2,
		Classes:     []Class{ClassWater, ClassWater, ClassRoad, ClassBuilding},
		Confidences: []float32{0.9, 0.29, 0.3, 0.31},
	}

	seg.ApplyConfidenceFloor(0.3)

	want := []Class{ClassWater, ClassUnlabeled, ClassRoad, ClassBuilding}
	for i, c := range seg.Classes {
		if c != want[i] {
			t.Fatalf("pixel %d: got %s, want %s", i, c, want[i])
		}
	}
}

func TestClassShares(t *testing.T) {
	seg := &Segmentation{
		Width:  5,
		Height: 2,
		Classes: []Class{
			ClassWater, ClassWater, ClassWater, ClassWater,
			ClassLand, ClassLand, ClassLand,
			ClassRoad, ClassRoad,
			ClassUnlabeled,
		},
		Confidences: make([]float32, 10),
	}

	shares := seg.ClassShares()

	if got := shares[ClassWater]; got != 40.0 {
		t.Fatalf("water share = %v, want 40", got)
	}
	if got := shares[ClassLand]; got != 30.0 {
		t.Fatalf("land share = %v, want 30", got)
	}
	if got := shares[ClassRoad]; got != 20.0 {
		t.Fatalf("road share = %v, want 20", got)
	}

	total := 0.0
	for _, s := range shares {
		total += s
	}
	if math.Abs(total-100.0) > 1e-9 {
		t.Fatalf("shares sum to %v, want 100", total)
	}
}

func TestClassSharesEmptyMask(t *testing.T) {
	seg := &Segmentation{}
	if shares := seg.ClassShares(); len(shares) != 0 {
		t.Fatalf("expected no shares for empty mask, got %v", shares)
	}
}

func TestClassString(t *testing.T) {
	if ClassWater.String() != "Water" {
		t.Fatalf("unexpected name: %s", ClassWater)
	}
	if Class(200).Valid() {
		t.Fatal("out-of-range class must be invalid")
	}
}
