package distribution

// CleanupResult contains information about an activity that was removed
type CleanupResult struct {
	ActivityID   int64
	TrashedFiles []TrashedFile
	Failures     []TrashedFile
}

// TrashedFile represents a Drive file or folder touched during cleanup
type TrashedFile struct {
	ID     string
	Name   string
	Reason string
}
