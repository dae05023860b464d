package report

import (
	"sort"
	"strings"

	"github.com/warp/recurring-engine/generic"
)

// adHocRank places ad-hoc rows between monthly and quarterly templates.
// Template ranks are doubled so the odd slot stays free.
const adHocRank = 5

func frequencyRank(r Row) int {
	if r.TypeLabel == TypeSystem {
		return r.Frequency.Rank() * 2
	}
	return adHocRank
}

func priorityRank(p generic.Priority) int {
	if p == generic.PriorityHigh {
		return 0
	}
	return 1
}

// SortRows applies the canonical ordering in place:
// active before inactive, high priority first, frequency rank,
// newest created first, title ignoring case, then source key so the
// order is total.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Inactive != b.Inactive {
			return !a.Inactive
		}
		if pa, pb := priorityRank(a.Priority), priorityRank(b.Priority); pa != pb {
			return pa < pb
		}
		if fa, fb := frequencyRank(a), frequencyRank(b); fa != fb {
			return fa < fb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title); ta != tb {
			return ta < tb
		}
		return a.SourceKey < b.SourceKey
	})
}
