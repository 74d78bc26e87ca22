package geo

import "math"

// ClockwiseBearing returns the planar direction from (lat1, lon1) to
// (lat2, lon2) in degrees, measured clockwise from due east and normalized
// to [0, 360). Longitude is the x axis and latitude the y axis, so due north
// is 270 and due south is 90.
//
// This is not a navigational bearing. It only has to be consistent between
// calls so that turn angles can be compared while walking a contour.
func ClockwiseBearing(lat1, lon1, lat2, lon2 float64) float64 {
	deg := math.Atan2(lat2-lat1, lon2-lon1) * 180 / math.Pi
	b := math.Mod(360-deg, 360)
	if b < 0 {
		b += 360
	}
	return b
}

// Reverse returns the opposite direction of bearing b, in [0, 360).
func Reverse(b float64) float64 {
	return math.Mod(b+180, 360)
}
