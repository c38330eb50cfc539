package dto

// StatusTotals counts queries per lifecycle state.
type StatusTotals struct {
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
	Total      int `json:"total"`
}

// CategoryRow is one line of the category × status breakdown table.
type CategoryRow struct {
	Category   string `json:"category"`
	Pending    int    `json:"pending"`
	InProgress int    `json:"inProgress"`
	Resolved   int    `json:"resolved"`
}

// QueryReport is the derived aggregate snapshot for the reports view. It is
// recomputed from scratch on every request and stored nowhere.
type QueryReport struct {
	Totals            StatusTotals  `json:"totals"`
	OverduePending    int           `json:"overduePending"`
	AvgResolutionDays float64       `json:"avgResolutionDays"`
	ResolvedSampled   int           `json:"resolvedSampled"`
	Categories        []CategoryRow `json:"categories"`
}

// DashboardSummary is the compact header block for the dashboards.
type DashboardSummary struct {
	Totals         StatusTotals `json:"totals"`
	OverduePending int          `json:"overduePending"`
	Unread         bool         `json:"unread"`
}
