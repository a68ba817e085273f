package models

// Stats is a projection over a user's session list. It is never persisted.
type Stats struct {
	TotalSessions      int          `json:"total_sessions"`
	AvgRating          float64      `json:"avg_rating"`
	LastSession        *SessionData `json:"last_session"`
	LastRecommendation *string      `json:"last_recommendation"`
}
