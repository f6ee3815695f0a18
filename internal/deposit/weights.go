package deposit

// W2nd returns the quadratic (triangular-shaped cloud) weights of the nodes
// i-1, i and i+1 for a particle at offset d from node i. The weights sum to
// one for every d.
func W2nd(d float64) [3]float64 {
	return [3]float64{
		0.5 * (0.5 - d) * (0.5 - d),
		0.75 - d*d,
		0.5 * (0.5 + d) * (0.5 + d),
	}
}

// pinned is the transverse weight of an axis the grid does not resolve: the
// whole contribution lands on the single node.
var pinned = [3]float64{0, 1, 0}

// contraction is the Lorentz contraction divisor for axis a, or 1 when the
// particle is at rest.
func contraction(gam, betaAxis2, beta2 float64) float64 {
	if beta2 == 0 {
		return 1
	}
	return 1.0 + (gam-1.0)*betaAxis2/beta2
}
