package constants

import "math"

const HartreeEnergy float64 = 27.211386245988         // eV
const AtomicTime float64 = 0.024188843265857          // fs
const AtomicField float64 = 5.14220674763e11          // V/m
const Ln2 = math.Ln2
const FourPi = 4 * math.Pi
