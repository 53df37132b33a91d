// Package epoch implements the rolling-horizon decomposition: slicing a
// global instance into time-ordered epoch instances and carrying vehicles
// still on the road at an epoch boundary into the next epoch.
package epoch
