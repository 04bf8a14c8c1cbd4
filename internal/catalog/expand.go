package catalog

import "fmt"

// ReplicaPrefix starts the id of every generated replica. Seed ids may not use it.
const ReplicaPrefix = "vault-ref-"

// Expand pads base up to target entries with playlist replicas of the base items.
// Replica i copies base[i%len(base)] under the id "vault-ref-<i>"; a suffix
// already taken by a base id is skipped so ids stay unique.
func Expand(base []MediaItem, target int) []MediaItem {
	items := make([]MediaItem, 0, max(target, len(base)))
	taken := make(map[string]bool, len(base))
	for _, item := range base {
		items = append(items, item.clone())
		taken[item.ID] = true
	}

	if len(base) == 0 {
		return items
	}

	needed := target - len(base)
	next := 0
	for i := 0; i < needed; i++ {
		id := fmt.Sprintf("%s%d", ReplicaPrefix, next)
		for taken[id] {
			next++
			id = fmt.Sprintf("%s%d", ReplicaPrefix, next)
		}
		next++
		taken[id] = true

		parent := base[i%len(base)]
		replica := parent.clone()
		replica.ID = id
		replica.Name = fmt.Sprintf("%s (Mirror #%d)", parent.Name, i+1)
		replica.Categories = []Category{CategoryPlaylist, CategoryOptimized}
		items = append(items, replica)
	}

	return items
}
