// Package normalisers holds the text reducers used before content reaches
// the search index. html handles rendered forum posts; markdown handles
// issue and comment bodies from the tracker.
package normalisers
