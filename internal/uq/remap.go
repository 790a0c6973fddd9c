package uq

// Remap moves points from the un-shifted frame onto the circle. Each point is
// rotated so the frame origin lands on mode, then every point that falls in
// the region the band used to precede is pushed forward by B - A:
//
//	f(x)
//	  |                   *
//	  |   ***            * *      **
//	  | **   *          *   **  **  *     ***
//	  |*      *        *      **     *  **   *
//	  |        *      *               **
//	  |         *    *
//	--+----------****-----+------------------+--
//	 lo          A  B     C                  hi    (x)
//
// Results are wrapped back into [lower, upper) and never fall inside (A, B).
// The frame is periodic in R, so inputs outside [lower, lower+R) are first
// reduced into it. mode is passed separately from d.Mode because the
// quadrature strategy rotates it per offset.
func Remap(xs []float64, d DomainSpec, mode float64) []float64 {
	a, b := d.ZeroBandStart, d.ZeroBandEnd
	skip := b - a

	out := make([]float64, len(xs))
	for i, x := range xs {
		v := d.wrap(mode + d.reduce(x))
		if a < mode {
			if v > a && v < mode {
				v = d.wrap(v + skip)
			}
		} else if v > a || v < mode {
			v = d.wrap(v + skip)
		}
		out[i] = v
	}
	return out
}

// advance walks length units forward from start along the circle without
// counting the band, and reports the arc length actually covered.
func advance(d DomainSpec, start, length float64) (end, arc float64) {
	skip := d.BandWidth()
	arc = length
	if skip > 0 {
		toBand := d.wrap(d.ZeroBandStart) - start
		if toBand < 0 {
			toBand += d.Period()
		}
		if length > toBand {
			arc += skip
		}
	}
	return d.wrap(start + arc), arc
}
