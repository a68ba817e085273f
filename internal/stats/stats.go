// Package stats projects a user's session list into running statistics.
package stats

import (
	"math"

	"sensai/internal/models"
)

// Recompute derives Stats from the authoritative session list.
// LastRecommendation is left nil: only the recommendation engine fills it.
func Recompute(sessions []models.SessionData) models.Stats {
	n := len(sessions)
	if n == 0 {
		return models.Stats{}
	}
	sum := 0
	for _, s := range sessions {
		sum += s.Rating
	}
	last := sessions[n-1]
	return models.Stats{
		TotalSessions: n,
		AvgRating:     roundTenth(float64(sum) / float64(n)),
		LastSession:   &last,
	}
}

// Reconcile recomputes from sessions and carries the previous recommendation
// forward, unless the list has been emptied.
func Reconcile(prev models.Stats, sessions []models.SessionData) models.Stats {
	next := Recompute(sessions)
	if next.TotalSessions > 0 {
		next.LastRecommendation = prev.LastRecommendation
	}
	return next
}

// WithRecommendation returns st with its recommendation replaced.
// An empty text clears it.
func WithRecommendation(st models.Stats, text string) models.Stats {
	if text == "" {
		st.LastRecommendation = nil
		return st
	}
	t := text
	st.LastRecommendation = &t
	return st
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
