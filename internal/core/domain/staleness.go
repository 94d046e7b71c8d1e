package domain

// NeedsRefetch decides whether a subject's remote state justifies fetching
// more of it. local may be nil when nothing is stored yet; localChildren is
// the number of child items already stored for the subject.
//
// The check leans towards refetching: skipping a stale subject is worse than
// one wasted request.
func NeedsRefetch(local *LocalRecord, localChildren int, remote RemoteSummary) bool {
	if local == nil {
		return true
	}
	if local.ItemCount != remote.ItemCount {
		return true
	}
	if local.LastActivityAt.Before(remote.LastActivityAt) {
		return true
	}
	return localChildren < remote.ItemCount
}
