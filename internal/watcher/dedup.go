package watcher

// IsNewSample decides whether a scraped label should be processed as a
// track transition.
//
// A sample identical to the previous tick's sample is unchanged. A
// sample matching a recently scrobbled label is a scraping artifact (the
// page occasionally re-reports a track it already moved past) and is
// ignored so the track is not reopened and double-scrobbled. Labels in
// the default set are never compared against history: a transition to
// silence is still a transition, but silence itself never counts as a
// recently played track.
func IsNewSample(sample, prev string, hist *History, isDefault func(string) bool) bool {
	if sample == prev {
		return false
	}
	if isDefault(sample) {
		return true
	}
	return !hist.Contains(sample)
}
