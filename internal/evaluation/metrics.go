package evaluation

// Score grades one golden query. An empty expectation is met only by an
// empty result, which scores 1 on both metrics.
func Score(expectedIDs, retrievedIDs []string, k int) (recall, mrr float64) {
	if len(expectedIDs) == 0 {
		if len(retrievedIDs) == 0 {
			return 1, 1
		}
		return 0, 0
	}
	return RecallAtK(expectedIDs, retrievedIDs, k), MRRAtK(expectedIDs, retrievedIDs, k)
}

// RecallAtK is the fraction of expected event IDs present in the first k
// retrieved IDs. An event retrieved twice counts once.
func RecallAtK(expectedIDs, retrievedIDs []string, k int) float64 {
	if len(expectedIDs) == 0 {
		return 0
	}
	expected := idSet(expectedIDs)
	total := len(expected)

	found := 0
	for _, id := range topK(retrievedIDs, k) {
		if _, ok := expected[id]; ok {
			found++
			delete(expected, id)
		}
	}
	return float64(found) / float64(total)
}

// MRRAtK is the reciprocal rank of the first expected event within the
// first k retrieved IDs, or 0.
func MRRAtK(expectedIDs, retrievedIDs []string, k int) float64 {
	if len(expectedIDs) == 0 {
		return 0
	}
	expected := idSet(expectedIDs)
	for i, id := range topK(retrievedIDs, k) {
		if _, ok := expected[id]; ok {
			return 1 / float64(i+1)
		}
	}
	return 0
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func topK(ids []string, k int) []string {
	if k >= 0 && k < len(ids) {
		return ids[:k]
	}
	return ids
}
