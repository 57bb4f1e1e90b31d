package tasks

import "time"

// Task Types
const (
	// Drive synchronization tasks
	TaskTypeFolderSync = "drive:folder_sync"
	TaskTypeFileSync   = "drive:file_sync"
)

// Task Queues
const (
	QueueCritical = "critical" // For time-sensitive tasks
	QueueDefault  = "default"  // For regular tasks like folder syncs
	QueueLow      = "low"      // For background cleanup
)

// Task Timeouts
const (
	TimeoutShort  = 1 * time.Minute
	TimeoutMedium = 5 * time.Minute
	TimeoutLong   = 30 * time.Minute
)

// Task Retry Settings
const (
	RetryDefault = 3
)

// SyncPayload is the payload for folder and file sync tasks.
type SyncPayload struct {
	URL        string `json:"url"`
	UploadedBy string `json:"uploaded_by"`
}
