package core

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Atomic masses (monoisotopic)
const (
	MassH = 1.0078250321
	MassC = 12.0000000000
	MassN = 14.0030740052
	MassO = 15.9949146221
	MassS = 31.9720706900
)

// ResidueComposition stores the elemental composition of an amino acid
// residue (the amino acid minus one water).
type ResidueComposition struct {
	C, H, N, O, S int
}

// ResidueCompositions maps one-letter amino acid codes to residue composition.
var ResidueCompositions = map[rune]ResidueComposition{
	'A': {C: 3, H: 5, N: 1, O: 1},
	'R': {C: 6, H: 12, N: 4, O: 1},
	'N': {C: 4, H: 6, N: 2, O: 2},
	'D': {C: 4, H: 5, N: 1, O: 3},
	'C': {C: 3, H: 5, N: 1, O: 1, S: 1},
	'E': {C: 5, H: 7, N: 1, O: 3},
	'Q': {C: 5, H: 8, N: 2, O: 2},
	'G': {C: 2, H: 3, N: 1, O: 1},
	'H': {C: 6, H: 7, N: 3, O: 1},
	'I': {C: 6, H: 11, N: 1, O: 1},
	'L': {C: 6, H: 11, N: 1, O: 1},
	'K': {C: 6, H: 12, N: 2, O: 1},
	'M': {C: 5, H: 9, N: 1, O: 1, S: 1},
	'F': {C: 9, H: 9, N: 1, O: 1},
	'P': {C: 5, H: 7, N: 1, O: 1},
	'S': {C: 3, H: 5, N: 1, O: 2},
	'T': {C: 4, H: 7, N: 1, O: 2},
	'W': {C: 11, H: 10, N: 2, O: 1},
	'Y': {C: 9, H: 9, N: 1, O: 2},
	'V': {C: 5, H: 9, N: 1, O: 1},
}

// CalculateProteinMass computes the monoisotopic mass of a protein from its
// one-letter sequence. Whitespace and a trailing stop codon '*' are ignored.
func CalculateProteinMass(sequence string) (float64, error) {
	comp := ResidueComposition{H: 2, O: 1} // terminal water
	residues := 0

	for i, aa := range strings.ToUpper(sequence) {
		if unicode.IsSpace(aa) || aa == '*' {
			continue
		}
		rc, ok := ResidueCompositions[aa]
		if !ok {
			return 0, fmt.Errorf("unknown amino acid '%c' at position %d", aa, i)
		}
		comp.C += rc.C
		comp.H += rc.H
		comp.N += rc.N
		comp.O += rc.O
		comp.S += rc.S
		residues++
	}
	if residues == 0 {
		return 0, fmt.Errorf("sequence is empty")
	}

	return float64(comp.C)*MassC +
		float64(comp.H)*MassH +
		float64(comp.N)*MassN +
		float64(comp.O)*MassO +
		float64(comp.S)*MassS, nil
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
