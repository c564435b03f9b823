package model

// DistributionBucket is one row of a count grouped by a categorical field.
type DistributionBucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// AnalyticsSnapshot is the combined productivity view for one owner. It is
// assembled from independent queries, so under concurrent writes the counts
// may disagree by a write or two; see the aggregator for the consistency
// contract.
type AnalyticsSnapshot struct {
	TotalTasks           int                  `json:"total_tasks"`
	CompletedTasks       int                  `json:"completed_tasks"`
	PendingTasks         int                  `json:"pending_tasks"`
	CompletionRate       float64              `json:"completion_rate"`
	PriorityDistribution []DistributionBucket `json:"priority_distribution"`
	StatusDistribution   []DistributionBucket `json:"status_distribution"`
	UpcomingDeadlines    []Task               `json:"upcoming_deadlines"`
}
