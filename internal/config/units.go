package config

import (
	"github.com/wildstyl3r/sfi/internal/constants"
	"github.com/wildstyl3r/sfi/internal/utils"
)

// value of one unit in atomic units
var unitToAtomic = map[string]float64{
	"Ha":       1,
	"eV":       1. / constants.HartreeEnergy,
	"au_time":  1,
	"fs":       1. / constants.AtomicTime,
	"au_field": 1,
	"V/m":      1. / constants.AtomicField,
}

type UnitClass int

const (
	Energy UnitClass = iota
	Time
	Field
)

var unitsInClass = map[UnitClass][]string{
	Energy: {"eV", "Ha"},
	Time:   {"fs", "au_time"},
	Field:  {"V/m", "au_field"},
}

var classesOfUnits = map[string]UnitClass{
	"eV":       Energy,
	"Ha":       Energy,
	"fs":       Time,
	"au_time":  Time,
	"V/m":      Field,
	"au_field": Field,
}

type UnitElement = struct {
	Class UnitClass
	Power int
}

// checkUnits reports unknown units and units of an already seen class as
// conflicts and completes the list with the atomic unit of every class
// left unspecified.
func checkUnits(units []string) (extended, conflicts []string) {
	classes := map[UnitClass]struct{}{}
	for _, unit := range units {
		class, known := classesOfUnits[unit]
		if _, some := classes[class]; some || !known {
			conflicts = append(conflicts, unit)
		} else {
			classes[class] = struct{}{}
		}
	}
	extended = append([]string(nil), units...)
	for _, unit := range defaultUnits {
		if _, some := classes[classesOfUnits[unit]]; !some {
			extended = append(extended, unit)
		}
	}
	return
}

// Atomic converts v given in units to atomic units when direct is set and
// back from atomic units otherwise.
func Atomic(v float64, classes []UnitElement, units []string, direct bool) float64 {
	for _, uc := range classes {
		unit := utils.Intersect(unitsInClass[uc.Class], units)
		if unit == nil {
			continue
		}
		factor := unitToAtomic[*unit]
		if direct == (uc.Power > 0) {
			for range utils.IntAbs(uc.Power) {
				v *= factor
			}
		} else {
			for range utils.IntAbs(uc.Power) {
				v /= factor
			}
		}
	}
	return v
}
