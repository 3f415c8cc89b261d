package models

import "fmt"

// GroupKind names a partition of the symbol universe.
type GroupKind string

const (
	GroupAll         GroupKind = "ALL"
	GroupMegaCap     GroupKind = "MEGACAP"
	GroupGT50M       GroupKind = "GT50M"
	GroupLT50M       GroupKind = "LT50M"
	GroupOTC         GroupKind = "OTC"
	GroupAll500K     GroupKind = "ALL500K"
	GroupMegaCap500K GroupKind = "MEGACAP500K"
	GroupGT50M500K   GroupKind = "GT50M500K"
	GroupLT50M500K   GroupKind = "LT50M500K"
	GroupOTC500K     GroupKind = "OTC500K"
	GroupSPAC        GroupKind = "SPAC"
)

// GroupKinds lists every known group in a fixed order.
var GroupKinds = []GroupKind{
	GroupAll, GroupMegaCap, GroupGT50M, GroupLT50M, GroupOTC,
	GroupAll500K, GroupMegaCap500K, GroupGT50M500K, GroupLT50M500K, GroupOTC500K,
	GroupSPAC,
}

// ParseGroupKind validates a group tag coming from configuration or a provider.
func ParseGroupKind(s string) (GroupKind, error) {
	for _, k := range GroupKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown ticker group %q", s)
}

// TickerGroups maps a group to its ordered symbols.
type TickerGroups map[GroupKind][]string

// NewTickerGroups returns a mapping where every known group resolves to an empty slice.
func NewTickerGroups() TickerGroups {
	g := make(TickerGroups, len(GroupKinds))
	for _, k := range GroupKinds {
		g[k] = []string{}
	}
	return g
}

// Normalize copies src into a fresh mapping holding every known group.
// Unknown groups are returned separately so callers can report them.
func Normalize(src map[string][]string) (TickerGroups, []string) {
	out := NewTickerGroups()
	var unknown []string
	for name, symbols := range src {
		k, err := ParseGroupKind(name)
		if err != nil {
			unknown = append(unknown, name)
			continue
		}
		cp := make([]string, len(symbols))
		copy(cp, symbols)
		out[k] = cp
	}
	return out, unknown
}

// Symbols returns the symbols of a group, never nil.
func (g TickerGroups) Symbols(k GroupKind) []string {
	if s, ok := g[k]; ok && s != nil {
		return s
	}
	return []string{}
}
