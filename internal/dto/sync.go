package dto

// Sync actions for teaching-assignment changes.
const (
	SyncActionAdd    = "add"
	SyncActionRemove = "remove"
)

// SyncAssignmentRequest propagates a teaching-assignment change into
// existing timetable slots.
type SyncAssignmentRequest struct {
	ClassID    string   `json:"classId" validate:"required"`
	SubjectIDs []string `json:"subjectIds" validate:"required,min=1"`
	TeacherID  string   `json:"teacherId" validate:"required"`
	Action     string   `json:"action" validate:"required,oneof=add remove"`
}

// SyncRoomRequest backfills a newly capable room into roomless slots of a subject.
type SyncRoomRequest struct {
	SubjectID string `json:"subjectId" validate:"required"`
	RoomID    string `json:"roomId" validate:"required"`
}

// SyncResult reports how many slots a sync call touched.
type SyncResult struct {
	SlotsUpdated int `json:"slotsUpdated"`
}
