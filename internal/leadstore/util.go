package leadstore

import "sort"

// orderedKeys returns map keys sorted for deterministic write order.
func orderedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
