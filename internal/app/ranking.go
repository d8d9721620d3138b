package app

import (
	"sort"
	"strconv"
	"strings"

	"sprint-quiz-service/internal/domain"
)

// normalizeScore parses a stored score leniently. Rows written by older
// dashboard variants may carry a blank or non-numeric score; those rank as 0
// rather than failing the whole ranking.
func normalizeScore(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

// rank normalizes raw store rows and returns the top n, highest score first.
// The sort is stable, so ties keep submission order (earlier entry first).
func rank(rows []domain.RawResult, n int) []domain.RankEntry {
	entries := make([]domain.RankEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.RankEntry{
			Name:  row.Name,
			Score: normalizeScore(row.Score),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// placedTop reports whether a finished session's score lands in the displayed
// ranking. With fewer than n entries everyone places. Otherwise the score is
// compared against the last displayed entry; this deliberately counts ties at
// the cut line as placed, a product heuristic rather than strict membership.
func placedTop(score int, top []domain.RankEntry, n int) bool {
	if len(top) < n {
		return true
	}
	return score >= top[len(top)-1].Score
}
