package domain

// ExcludedTaskID is never completed by the orchestrator.
const ExcludedTaskID = 2058

const (
	TaskTypeLogin        = "LOGIN"
	TaskStatusInProgress = "IN_PROGRESS"
)

type TaskStatus string

const (
	TaskIncomplete TaskStatus = "incomplete"
	TaskCompleted  TaskStatus = "completed"
)

type Task struct {
	ResourceID     int
	CompletedCount int
	Type           string
	RemoteStatus   string
}

func (t Task) Status() TaskStatus {
	if t.pending() {
		return TaskIncomplete
	}
	return TaskCompleted
}

func (t Task) pending() bool {
	if t.CompletedCount == 0 {
		return true
	}

	// Check-in tasks stay in progress across days even after a first completion.
	return t.Type == TaskTypeLogin && t.RemoteStatus == TaskStatusInProgress
}

// PendingTaskIDs returns the resource ids to complete, in list order, with
// the excluded task dropped and duplicates removed.
func PendingTaskIDs(tasks []Task) []int {
	ids := make([]int, 0, len(tasks))
	seen := make(map[int]struct{}, len(tasks))

	for _, task := range tasks {
		if !task.pending() || task.ResourceID == ExcludedTaskID {
			continue
		}
		if _, ok := seen[task.ResourceID]; ok {
			continue
		}
		seen[task.ResourceID] = struct{}{}
		ids = append(ids, task.ResourceID)
	}

	return ids
}
