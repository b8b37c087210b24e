// Package fingerprint computes structural signatures of operations and
// decides exact structural equivalence.
//
// A Signature is a bucketing key: equal operations always share one, but a
// shared Signature proves nothing. Equivalent is the authority and is
// always consulted before two operations are treated as the same.
package fingerprint
