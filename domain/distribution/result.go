package distribution

// RecordEntry is a created file as reported to the caller
type RecordEntry struct {
	UserID     int64      `json:"userid,omitempty"`
	GroupID    int64      `json:"groupid,omitempty"`
	GroupingID int64      `json:"groupingid,omitempty"`
	URL        string     `json:"url"`
	Permission Permission `json:"permission"`
	Name       string     `json:"name"`
}

// StatusEntry is one target's outcome as reported to the caller
type StatusEntry struct {
	UserID         int64  `json:"userid"`
	GroupID        int64  `json:"groupid,omitempty"`
	GroupingID     int64  `json:"groupingid,omitempty"`
	CreationStatus string `json:"creation_status"`
}

// Result is returned by a distribution run.
// Records and Status follow the order of the resolved targets.
type Result struct {
	RunID   string        `json:"-"`
	Records []RecordEntry `json:"records"`
	Status  []StatusEntry `json:"status"`
}

// Created counts the targets whose status is OK
func (r *Result) Created() int {
	n := 0
	for _, s := range r.Status {
		if s.CreationStatus == StatusOK {
			n++
		}
	}
	return n
}

// Failed counts the targets whose status is not OK
func (r *Result) Failed() int {
	return len(r.Status) - r.Created()
}
