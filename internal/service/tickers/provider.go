// Package tickers implements the symbol list providers behind the ticker cache.
package tickers

import "strings"

// clean trims symbols and drops blanks and repeats, keeping the provider's order.
func clean(lists map[string][]string) map[string][]string {
	out := make(map[string][]string, len(lists))
	for group, symbols := range lists {
		seen := make(map[string]struct{}, len(symbols))
		kept := make([]string, 0, len(symbols))
		for _, s := range symbols {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			kept = append(kept, s)
		}
		out[strings.ToUpper(strings.TrimSpace(group))] = kept
	}
	return out
}
