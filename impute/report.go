// SPDX-License-Identifier: MIT

package impute

import "time"

// Report summarizes one Fit.
type Report struct {
	Rounds        int           // rounds completed
	Deltas        []float64     // normalized delta per round
	Converged     bool          // last delta ≤ tolerance
	FinalDelta    float64       // last delta (0 when nothing was imputed)
	AlwaysMissing []int         // columns without any observed value
	Dropped       []int         // columns removed from every output
	Order         []int         // visiting order
	Imputed       int           // missing cells in the fit input
	Elapsed       time.Duration // wall time of Fit
}

func (r *Report) clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	c.Deltas = append([]float64(nil), r.Deltas...)
	c.AlwaysMissing = append([]int(nil), r.AlwaysMissing...)
	c.Dropped = append([]int(nil), r.Dropped...)
	c.Order = append([]int(nil), r.Order...)

	return &c
}
