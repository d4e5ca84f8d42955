package models

import "math"

// StatsSnapshot holds per-status task counts for one owner.
type StatsSnapshot struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in-progress"`
	Completed  int64 `json:"completed"`
}

// Add records n tasks with status s. Unknown statuses only count toward Total.
func (s *StatsSnapshot) Add(status TaskStatus, n int64) {
	switch status {
	case StatusPending:
		s.Pending += n
	case StatusInProgress:
		s.InProgress += n
	case StatusCompleted:
		s.Completed += n
	}
	s.Total += n
}

func (s StatsSnapshot) Count(status TaskStatus) int64 {
	switch status {
	case StatusPending:
		return s.Pending
	case StatusInProgress:
		return s.InProgress
	case StatusCompleted:
		return s.Completed
	}
	return 0
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := int64(0)
	if limit > 0 {
		pages = int64(math.Ceil(float64(total) / float64(limit)))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// UserStats is the admin overview of the user base.
type UserStats struct {
	TotalUsers  int64  `json:"totalUsers"`
	TotalTasks  int64  `json:"totalTasks"`
	RecentUsers []User `json:"recentUsers"`
}
