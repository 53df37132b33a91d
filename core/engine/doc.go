// Package engine runs the rolling-horizon decomposition. The horizon is
// partitioned into epochs that are solved strictly in order: each epoch gets
// its status quo, is simplified, is handed to the optimizer and finally
// pushes its in-transit vehicles into the next epoch. The per-epoch
// solutions are then reconstructed into one full-horizon solution next to an
// offline baseline computed without decomposition.
//
// Optimizer failures are the only errors recovered here: the epoch keeps its
// status quo and is flagged as a fallback. Structural errors abort the run.
package engine
