// Package simplify shrinks an epoch problem before it reaches the optimizer.
//
// Every vehicle occupies each arc of its path during a half-open interval
// taken from the status quo. The undivided conflicting set groups these
// occupancies per arc. A pair of vehicles survives preprocessing when its
// separation on the arc is at most BoundFactor times the larger staggering
// either vehicle may still receive; with BoundFactor >= 1 no pair that could
// overlap under some feasible staggering is ever dropped. Arcs left with no
// pair, or whose remaining group cannot exceed the arc capacity, are removed
// from the problem.
package simplify
