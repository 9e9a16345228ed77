package models

import "time"

// Room is a physical room. Rooms tagged with subjects are function rooms
// contended across classes; an untagged room serves as a generic space.
// A class's home room is synthetic: its id equals the class id and it is
// never stored here.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomSubject tags a room as supporting a subject.
type RoomSubject struct {
	ID        string `db:"id" json:"id"`
	RoomID    string `db:"room_id" json:"room_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
}
