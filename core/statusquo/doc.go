// Package statusquo computes the baseline schedule of an instance: every
// vehicle leaves at its release time and traverses each arc of its path in
// the arc's nominal travel time. The result is what every staggering round
// tries to improve upon.
package statusquo
