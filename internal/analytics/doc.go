// Package analytics is the deterministic core of campaign intelligence:
// regression trends, confidence, forecasts, performance scores,
// rule-based recommendations, decision support, and organization-level
// pattern learning.
//
// Everything here is a pure function of its arguments. Nothing performs I/O,
// reads the clock, logs, or keeps state between calls, so results can be
// computed concurrently across campaigns and compared byte for byte.
//
// Division by zero never escapes: every ratio resolves to 0 when its
// denominator is 0, and empty inputs produce zero-valued results or an
// explicit message rather than an error.
package analytics
