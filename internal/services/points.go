package services

import "layeredge/internal/models"

// Engagement weights. The submission base was observed as both 5 and 10
// in the product history; BASE_SUBMISSION_POINTS is the single
// authoritative constant.
const (
	BASE_SUBMISSION_POINTS = 10
	POINTS_PER_LIKE        = 1
	POINTS_PER_RETWEET     = 3
	POINTS_PER_REPLY       = 2
)

// CalculatePoints maps engagement counts to a submission's point value.
// Pure and deterministic.
func CalculatePoints(engagement models.Engagement) int {
	return BASE_SUBMISSION_POINTS +
		engagement.Likes*POINTS_PER_LIKE +
		engagement.Retweets*POINTS_PER_RETWEET +
		engagement.Replies*POINTS_PER_REPLY
}
