package domain

import "sort"

// BucketCount is one breakdown row. The key is serialized as _id to match
// the shape aggregation-pipeline consumers already expect.
type BucketCount struct {
	Key   string `json:"_id"`
	Count int    `json:"count"`
}

// MonthKey identifies a (year, month) trend bucket.
type MonthKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// MonthlyTrend counts tasks due in a month and how many of them completed.
type MonthlyTrend struct {
	Key       MonthKey `json:"_id"`
	Count     int      `json:"count"`
	Completed int      `json:"completed"`
}

// Analytics is the read-side summary of a visibility-scoped task set.
type Analytics struct {
	TotalTasks        int            `json:"totalTasks"`
	CompletedTasks    int            `json:"completedTasks"`
	PendingTasks      int            `json:"pendingTasks"`
	StatusBreakdown   []BucketCount  `json:"statusBreakdown"`
	PriorityBreakdown []BucketCount  `json:"priorityBreakdown"`
	MonthlyTrends     []MonthlyTrend `json:"monthlyTrends"`
}

// Summarize recomputes the full summary from scratch. Breakdowns only list
// values actually present, sorted by key for stable output. Tasks without a
// due date are excluded from monthly trends only; due dates are required on
// creation so that branch is defensive.
func Summarize(tasks []Task) Analytics {
	a := Analytics{TotalTasks: len(tasks)}

	statusCounts := map[string]int{}
	priorityCounts := map[string]int{}
	trends := map[MonthKey]*MonthlyTrend{}

	for i := range tasks {
		t := &tasks[i]
		if t.Status == StatusCompleted {
			a.CompletedTasks++
		}
		statusCounts[string(t.Status)]++
		priorityCounts[string(t.Priority)]++

		if t.DueDate.IsZero() {
			continue
		}
		key := MonthKey{Year: t.DueDate.Year(), Month: int(t.DueDate.Month())}
		tr := trends[key]
		if tr == nil {
			tr = &MonthlyTrend{Key: key}
			trends[key] = tr
		}
		tr.Count++
		if t.Status == StatusCompleted {
			tr.Completed++
		}
	}
	a.PendingTasks = a.TotalTasks - a.CompletedTasks

	a.StatusBreakdown = bucketize(statusCounts)
	a.PriorityBreakdown = bucketize(priorityCounts)

	a.MonthlyTrends = make([]MonthlyTrend, 0, len(trends))
	for _, tr := range trends {
		a.MonthlyTrends = append(a.MonthlyTrends, *tr)
	}
	sort.Slice(a.MonthlyTrends, func(i, j int) bool {
		ki, kj := a.MonthlyTrends[i].Key, a.MonthlyTrends[j].Key
		if ki.Year != kj.Year {
			return ki.Year < kj.Year
		}
		return ki.Month < kj.Month
	})
	return a
}

func bucketize(counts map[string]int) []BucketCount {
	out := make([]BucketCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, BucketCount{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
