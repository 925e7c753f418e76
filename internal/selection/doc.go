// Package selection keeps a list selection consistent while the list it
// selects from changes underneath it.
//
// A Host owns the committed selection (a Set of Identity values) and a
// single Batch. Every change, whether it comes from an API call, a toggled
// row or a structural edit of the backing Collection, runs as one batch
// and publishes at most one Change. Items may be requested before they
// exist; such requests are deferred and applied when the item arrives.
package selection
