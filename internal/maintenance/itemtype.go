package maintenance

import "strings"

// itemTypeKeywords maps a case-insensitive filename substring to the
// ReleaseItem.item_type it implies, checked in order so the first match
// wins when a filename carries more than one keyword.
var itemTypeKeywords = []struct {
	keyword  string
	itemType string
}{
	{"box", "Box"},
	{"manual", "Manual"},
	{"map", "Map"},
	{"wheel", "CodeWheel"},
	{"inlay", "InlayCard"},
	{"card", "InlayCard"},
}

// classifyMediaScanItemType decides the specific ReleaseItem.item_type a
// legacy MediaScan file set should be reclassified under, based on
// filename keywords across its members. Falls back to "Disk" when no
// keyword matches any member name.
func classifyMediaScanItemType(memberNames []string) string {
	for _, name := range memberNames {
		lower := strings.ToLower(name)

		for _, k := range itemTypeKeywords {
			if strings.Contains(lower, k.keyword) {
				return k.itemType
			}
		}
	}

	return "Disk"
}
