// Package aoi builds the area-of-interest polygon and imagery tasking URL for
// a report location.
package aoi

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultDelta is the half-width of the bounding box in degrees.
	DefaultDelta = 0.02

	taskingBaseURL = "https://app.skyfi.com/tasking"
)

// BoundingBox is a lat/lon rectangle centered on a report location.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Around returns the box of +-delta degrees around the center point.
func Around(lat, lon, delta float64) BoundingBox {
	return BoundingBox{
		MinLat: lat - delta,
		MaxLat: lat + delta,
		MinLon: lon - delta,
		MaxLon: lon + delta,
	}
}

// WKT renders the box as a closed WKT POLYGON. Corner order is top-right,
// bottom-right, bottom-left, top-left, back to top-right, with coordinates as
// "lon lat" pairs. The imagery provider is sensitive to this ordering.
func (b BoundingBox) WKT() string {
	corners := [][2]float64{
		{b.MaxLon, b.MaxLat},
		{b.MaxLon, b.MinLat},
		{b.MinLon, b.MinLat},
		{b.MinLon, b.MaxLat},
		{b.MaxLon, b.MaxLat},
	}
	pairs := make([]string, 0, len(corners))
	for _, c := range corners {
		pairs = append(pairs, fmt.Sprintf("%v %v", c[0], c[1]))
	}
	return fmt.Sprintf("POLYGON ((%s))", strings.Join(pairs, ", "))
}

// TaskingURL builds the provider URL requesting daytime, very-high-resolution
// imagery for the box. The WKT polygon travels query-escaped in the aoi
// parameter.
func (b BoundingBox) TaskingURL() string {
	return fmt.Sprintf("%s?s=DAY&r=VERY+HIGH&aoi=%s", taskingBaseURL, url.QueryEscape(b.WKT()))
}
