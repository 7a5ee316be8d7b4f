// Package report defines the report kinds the service accepts and the rule
// that matches land-cover coverage against a report.
package report

import (
	"fmt"
	"strings"

	"github.com/example/sat-verify/internal/segmenter"
)

// Kind is a normalized (lower-cased) report type.
type Kind string

const (
	KindDanger       Kind = "danger"
	KindShelter      Kind = "shelter"
	KindResource     Kind = "resource"
	KindMedicalNeed  Kind = "medicalneed"
	KindResourceSpot Kind = "resource spot"
	KindFire         Kind = "fire"
	KindFlood        Kind = "flood"
	KindBuilding     Kind = "building"
	KindLand         Kind = "land"
	KindRoad         Kind = "road"
	KindVegetation   Kind = "vegetation"
	KindWater        Kind = "water"
)

var validKinds = map[Kind]struct{}{
	KindDanger: {}, KindShelter: {}, KindResource: {}, KindMedicalNeed: {},
	KindResourceSpot: {}, KindFire: {}, KindFlood: {}, KindBuilding: {},
	KindLand: {}, KindRoad: {}, KindVegetation: {}, KindWater: {},
}

// classKinds maps each verifiable land-cover class to the report kinds it can
// confirm. Kinds absent from every entry (danger, shelter, resource,
// resource spot) never verify from imagery alone.
var classKinds = map[segmenter.Class][]Kind{
	segmenter.ClassBuilding:   {KindBuilding},
	segmenter.ClassLand:       {KindLand, KindFlood},
	segmenter.ClassRoad:       {KindRoad},
	segmenter.ClassVegetation: {KindVegetation, KindFire},
	segmenter.ClassWater:      {KindWater, KindFlood},
}

// ErrUnknownKind reports an unrecognized report type.
type ErrUnknownKind struct {
	Raw string
}

func (e *ErrUnknownKind) Error() string {
	return fmt.Sprintf("unknown report type %q", e.Raw)
}

// ParseKind normalizes and validates a raw report type.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := validKinds[k]; !ok {
		return "", &ErrUnknownKind{Raw: raw}
	}
	return k, nil
}

// RequiresManualReview reports whether the kind has no imagery signal and must
// resolve unverified without running the pipeline.
func (k Kind) RequiresManualReview() bool {
	return k == KindMedicalNeed
}

// Match is a positive class/coverage match for a report.
type Match struct {
	Class segmenter.Class
	Share float64
}

// MatchCoverage checks the class shares against the kind. A match requires a
// mapped class with share strictly greater than minShare percent; the best
// qualifying class wins.
func (k Kind) MatchCoverage(shares map[segmenter.Class]float64, minShare float64) (Match, bool) {
	best := Match{}
	found := false
	for class, kinds := range classKinds {
		share, ok := shares[class]
		if !ok || share <= minShare {
			continue
		}
		for _, candidate := range kinds {
			if candidate != k {
				continue
			}
			if !found || share > best.Share {
				best = Match{Class: class, Share: share}
				found = true
			}
		}
	}
	return best, found
}
