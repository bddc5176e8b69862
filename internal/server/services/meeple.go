package services

import "math/rand/v2"

// MeeplePalette is the fixed set of cosmetic colours for challenge items.
var MeeplePalette = []string{"red", "blue", "green", "yellow", "orange", "purple", "black"}

// PickMeepleColor draws uniformly from MeeplePalette using r.
func PickMeepleColor(r *rand.Rand) string {
	return MeeplePalette[r.IntN(len(MeeplePalette))]
}
