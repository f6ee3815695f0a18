// Package analysis measures the spectral behaviour of the current filters.
//
// [Response] filters a unit impulse on a 1D tile and transforms it, giving
// the gain of the filter at every resolved wavenumber along x:
//
//	resp, err := analysis.Response(f, 64)
//	for i, k := range resp.K {
//	    fmt.Println(k, resp.Gain[i])
//	}
//
// For the three-point stencil family the gain is alpha + (1-alpha) cos k;
// [Gain3p] evaluates that closed form for comparison.
package analysis
