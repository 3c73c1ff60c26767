package strategy

// FindMatchingStrategy returns the first strategy, in iteration order of
// strategies, whose identification columns equal headings as a set.
// Matching is exact and case-sensitive; column order is ignored.
func FindMatchingStrategy(headings []string, strategies []*Strategy) (*Strategy, bool) {
	want := headingSet(headings)
	for _, s := range strategies {
		if sameSet(want, s.IdentificationColumns) {
			return s, true
		}
	}
	return nil, false
}

// FindAllMatchingStrategies returns every exact match, in iteration order.
func FindAllMatchingStrategies(headings []string, strategies []*Strategy) []*Strategy {
	want := headingSet(headings)
	var matches []*Strategy
	for _, s := range strategies {
		if sameSet(want, s.IdentificationColumns) {
			matches = append(matches, s)
		}
	}
	return matches
}

func headingSet(headings []string) map[string]bool {
	set := make(map[string]bool, len(headings))
	for _, h := range NormalizeHeadings(headings) {
		set[h] = true
	}
	return set
}

func sameSet(want map[string]bool, columns []string) bool {
	got := headingSet(columns)
	if len(got) != len(want) || len(got) == 0 {
		return false
	}
	for c := range got {
		if !want[c] {
			return false
		}
	}
	return true
}
