// Package segmenter defines the land-cover segmentation contract and the
// post-processing applied to raw model output.
package segmenter

import (
	"context"
	"fmt"
)

// Class is a land-cover class index. The ordering matches the inference
// service's output channels and must not change independently of it.
type Class uint8

const (
	ClassBuilding Class = iota
	ClassLand
	ClassRoad
	ClassVegetation
	ClassWater
	ClassUnlabeled
	ClassBackground

	numClasses
)

var classNames = [numClasses]string{
	"Building", "Land", "Road", "Vegetation", "Water", "Unlabeled", "Background",
}

// String returns the display name of the class.
func (c Class) String() string {
	if c >= numClasses {
		return fmt.Sprintf("Class(%d)", uint8(c))
	}
	return classNames[c]
}

// Valid reports whether the class index is one the model can emit.
func (c Class) Valid() bool {
	return c < numClasses
}

// Segmentation is the per-pixel output of the model for one snapshot: the
// winning class per pixel and its confidence, both in row-major order.
type Segmentation struct {
	Width       int
	Height      int
	Classes     []Class
	Confidences []float32
}

// ApplyConfidenceFloor reclassifies pixels whose confidence falls below the
// floor as Unlabeled, so that uncertain terrain never verifies a report.
func (s *Segmentation) ApplyConfidenceFloor(floor float64) {
	for i, conf := range s.Confidences {
		if float64(conf) < floor {
			s.Classes[i] = ClassUnlabeled
		}
	}
}

// ClassShares returns the percentage of pixels covered by each class present
// in the mask. Shares sum to 100 for a non-empty mask.
func (s *Segmentation) ClassShares() map[Class]float64 {
	shares := make(map[Class]float64)
	if len(s.Classes) == 0 {
		return shares
	}
	counts := make(map[Class]int)
	for _, c := range s.Classes {
		counts[c]++
	}
	total := float64(len(s.Classes))
	for c, n := range counts {
		shares[c] = float64(n) / total * 100
	}
	return shares
}

// Client exposes the subset of inference functionality used by the
// verification flow.
type Client interface {
	Segment(ctx context.Context, imagePNG []byte) (*Segmentation, error)
	Healthy(ctx context.Context) error
}
