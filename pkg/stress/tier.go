// Package stress assigns a cycling level-of-traffic-stress tier to OSM ways.
//
// Tier 0 means the way is not usable by bicycles at all; tiers 1 to Levels
// run from separated paths up to multi-lane fast roads.
package stress

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
)

// Levels is the number of non-zero stress tiers.
const Levels = 4

const (
	defaultLanes       = 2
	defaultMaxSpeed    = 50
	motorwayMaxSpeed   = 100
	nationalMaxSpeed   = 40
	lowSpeedLimit      = 40
	residentialSpeedOK = 50
)

// ErrUnknownValue is returned when a lanes or maxspeed tag cannot be read.
var ErrUnknownValue = errors.New("unknown tag value")

// pathHighways are separated facilities that are always tier 1.
var pathHighways = map[string]bool{
	"cycleway": true,
	"footway":  true,
	"walkway":  true,
	"path":     true,
}

// Tier evaluates the stress tier of a way from its tags. Lanes and maxspeed
// are only parsed when a rule needs them, so an unreadable maxspeed on a
// footway is not an error.
func Tier(tags osm.Tags) (int, error) {
	hw := tags.Find("highway")
	if hw == "" && !tags.HasTag("bicycle") {
		return 0, nil
	}

	if tags.Find("bicycle") == "no" {
		return 0, nil
	}
	if hw == "motorway" || hw == "motorway_link" {
		return 0, nil
	}
	if hw == "service" {
		switch tags.Find("service") {
		case "driveway", "parking_aisle":
			return 0, nil
		}
		return 2, nil
	}
	if tags.Find("footway") == "sidewalk" && tags.Find("bicycle") != "yes" {
		if hw == "footway" || hw == "path" {
			return 0, nil
		}
	}
	if pathHighways[hw] {
		return 1, nil
	}
	if tags.Find("cycleway") == "track" {
		return 2, nil
	}

	lanes, err := Lanes(tags)
	if err != nil {
		return 0, err
	}
	speed, err := MaxSpeed(tags)
	if err != nil {
		return 0, err
	}
	paintedLane := tags.Find("cycleway") == "lane"

	if lanes > 2 || (hw != "residential" && lanes > 1 && tags.Find("oneway") == "yes") {
		if speed <= lowSpeedLimit {
			if paintedLane {
				return 2, nil
			}
			return 3, nil
		}
		if paintedLane {
			return 3, nil
		}
		return 4, nil
	}
	if hw == "residential" {
		if speed > residentialSpeedOK {
			return 3, nil
		}
		return 2, nil
	}
	if speed <= lowSpeedLimit {
		return 2, nil
	}
	return 3, nil
}

// Lanes returns the lane count of a way. A list such as "2;3" yields its
// maximum, and a missing tag yields the default of 2.
func Lanes(tags osm.Tags) (int, error) {
	v := tags.Find("lanes")
	if v == "" {
		return defaultLanes, nil
	}
	if !strings.Contains(v, ";") {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: lanes=%q", ErrUnknownValue, v)
		}
		return n, nil
	}
	best := 1
	for _, part := range strings.Split(v, ";") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, fmt.Errorf("%w: lanes=%q", ErrUnknownValue, v)
		}
		best = max(best, n)
	}
	return best, nil
}

// MaxSpeed returns the speed limit of a way in km/h.
func MaxSpeed(tags osm.Tags) (int, error) {
	v := strings.TrimSpace(tags.Find("maxspeed"))
	if v == "" {
		if tags.Find("highway") == "motorway" {
			return motorwayMaxSpeed, nil
		}
		return defaultMaxSpeed, nil
	}
	if v == "national" {
		return nationalMaxSpeed, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}

	num, unit, ok := strings.Cut(v, " ")
	if ok {
		n, err := strconv.Atoi(num)
		if err == nil {
			switch strings.TrimSpace(unit) {
			case "km/h", "kmh":
				return n, nil
			case "mph":
				return int(math.Round(float64(n) * 1.609344)), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: maxspeed=%q", ErrUnknownValue, v)
}
