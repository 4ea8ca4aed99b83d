package model

// Stats is the per-owner status board summary. ByStatus always holds every
// status, zero-filled.
type Stats struct {
	ByStatus map[Status]int64 `json:"byStatus"`
	Total    int64            `json:"total"`
}

// NewStats returns Stats with every status present at zero.
func NewStats() *Stats {
	byStatus := make(map[Status]int64, len(AllStatuses))
	for _, st := range AllStatuses {
		byStatus[st] = 0
	}
	return &Stats{ByStatus: byStatus}
}
