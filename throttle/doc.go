// Package throttle paces fetches with randomized politeness intervals.
//
// The interval between consecutive fetches is drawn uniformly from a
// configured range, so request timing does not form a detectable fixed
// rhythm. The clock is marked before each network attempt; an attempt
// that fails after the mark still counts for pacing purposes.
package throttle
