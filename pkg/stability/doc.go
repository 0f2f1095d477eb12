// Package stability decides when a set of temperature servo loops has
// settled.
//
// Each poll cycle produces one sample: true when every monitored error
// signal is inside the tolerance. Samples are written into a fixed ring of
// N slots (5 by default) that starts all false. The loops are stable when no
// slot is false, so a single bad cycle blocks stability until its slot is
// overwritten N cycles later.
package stability
