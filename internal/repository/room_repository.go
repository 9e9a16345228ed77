package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-core-api/internal/models"
)

// RoomRepository provides access to function rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// FindByID loads a room by id.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `SELECT id, name, school_id, created_at, updated_at FROM rooms WHERE id = $1`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListBySubject returns the school's rooms equipped for a subject, in
// stable creation order. The allocator assigns the first free room from
// this order.
func (r *RoomRepository) ListBySubject(ctx context.Context, schoolID, subjectID string) ([]models.Room, error) {
	const query = `SELECT r.id, r.name, r.school_id, r.created_at, r.updated_at
FROM rooms r
JOIN room_subjects rs ON rs.room_id = r.id
WHERE r.school_id = $1 AND rs.subject_id = $2
ORDER BY r.created_at ASC, r.id ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, schoolID, subjectID); err != nil {
		return nil, fmt.Errorf("list rooms by subject: %w", err)
	}
	return rooms, nil
}
