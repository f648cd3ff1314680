// package matcher ranks search candidates against a free-text query
package matcher

import "github.com/desertthunder/ytstream/internal/models"

const (
	titleWeight  = 0.6
	authorWeight = 0.4
	remixPenalty = 0.8
	remixToken   = "remix"
)

// Score rates a candidate against q in [0, 1].
//
// Title overlap is measured against the tokens of both query parts, author
// overlap against the secondary part only. A candidate titled as a remix is
// penalized unless the query asked for one.
func Score(q models.Query, c models.SearchResult) float64 {
	secondary := Normalize(q.Secondary)
	query := Normalize(q.Primary).Union(secondary)
	return score(query, secondary, c)
}

func score(query, secondary Tokens, c models.SearchResult) float64 {
	title := Normalize(c.Title)

	s := titleWeight*ratio(query.Intersect(title), len(query)) +
		authorWeight*ratio(secondary.Intersect(Normalize(c.Author)), len(secondary))

	if title.Has(remixToken) && !query.Has(remixToken) {
		s *= remixPenalty
	}
	return s
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// BestMatch returns the highest scoring candidate. Ties go to the earliest
// candidate and the first candidate is accepted even with a zero score.
// The boolean is false only when candidates is empty.
func BestMatch(q models.Query, candidates []models.SearchResult) (models.SearchResult, bool) {
	secondary := Normalize(q.Secondary)
	query := Normalize(q.Primary).Union(secondary)

	best, bestScore := -1, -1.0
	for i, c := range candidates {
		if s := score(query, secondary, c); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return models.SearchResult{}, false
	}
	return candidates[best], true
}
