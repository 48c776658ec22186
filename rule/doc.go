// Package rule provides the compliance rule model shared by all three
// protocol rule sets, along with the runner that evaluates an ordered
// rule set against a fetched document and aggregates a Report.
//
// Rules are plain data: an identifier, a severity, and a pure evaluation
// closure. Rule sets are ordered slices of Rule values defined once at
// process start; evaluation order is declaration order and is preserved
// in the output for reproducibility.
//
// The runner isolates faults per rule. An unexpected panic during one
// rule's evaluation becomes a failing Result naming the internal error;
// the remaining rules still run.
package rule
