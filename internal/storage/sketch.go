package storage

import (
	"fmt"
	"time"

	"whiteboard/internal/domain"
)

// SketchStore persists whiteboard sketches in SQLite.
type SketchStore struct {
	db *DB
}

func NewSketchStore(db *DB) *SketchStore {
	return &SketchStore{db: db}
}

func (s *SketchStore) CreateSketch(sk *domain.Sketch) error {
	now := time.Now()
	sk.CreatedAt = now
	sk.UpdatedAt = now
	if sk.Elements == "" {
		sk.Elements = "[]"
	}
	if sk.ViewportZoom == 0 {
		sk.ViewportZoom = 1.0
	}
	_, err := s.db.conn.Exec(
		`INSERT INTO sketches (id, name, viewport_x, viewport_y, viewport_zoom, elements, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sk.ID, sk.Name, sk.ViewportX, sk.ViewportY, sk.ViewportZoom, sk.Elements, sk.CreatedAt, sk.UpdatedAt,
	)
	return err
}

func (s *SketchStore) GetSketch(id string) (*domain.Sketch, error) {
	sk := &domain.Sketch{}
	err := s.db.conn.QueryRow(
		`SELECT id, name, viewport_x, viewport_y, viewport_zoom, elements, created_at, updated_at
		 FROM sketches WHERE id = ?`, id,
	).Scan(&sk.ID, &sk.Name, &sk.ViewportX, &sk.ViewportY, &sk.ViewportZoom, &sk.Elements, &sk.CreatedAt, &sk.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get sketch: %w", err)
	}
	return sk, nil
}

// ListSketches returns all sketches without their element payloads; list
// views only need the metadata.
func (s *SketchStore) ListSketches() ([]domain.Sketch, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, name, viewport_x, viewport_y, viewport_zoom, created_at, updated_at
		 FROM sketches ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sketches []domain.Sketch
	for rows.Next() {
		var sk domain.Sketch
		if err := rows.Scan(&sk.ID, &sk.Name, &sk.ViewportX, &sk.ViewportY, &sk.ViewportZoom, &sk.CreatedAt, &sk.UpdatedAt); err != nil {
			return nil, err
		}
		sketches = append(sketches, sk)
	}
	return sketches, rows.Err()
}

func (s *SketchStore) UpdateSketch(sk *domain.Sketch) error {
	sk.UpdatedAt = time.Now()
	_, err := s.db.conn.Exec(
		`UPDATE sketches SET name = ?, viewport_x = ?, viewport_y = ?, viewport_zoom = ?, elements = ?, updated_at = ?
		 WHERE id = ?`,
		sk.Name, sk.ViewportX, sk.ViewportY, sk.ViewportZoom, sk.Elements, sk.UpdatedAt, sk.ID,
	)
	return err
}

// UpdateElements replaces just the element payload, bumping updated_at so
// watchers notice the change.
func (s *SketchStore) UpdateElements(id, elements string) error {
	_, err := s.db.conn.Exec(
		`UPDATE sketches SET elements = ?, updated_at = ? WHERE id = ?`,
		elements, time.Now(), id,
	)
	return err
}

// UpdateViewport saves pan/zoom state without touching updated_at; viewport
// moves must not wake the sketch watcher.
func (s *SketchStore) UpdateViewport(id string, x, y, zoom float64) error {
	_, err := s.db.conn.Exec(
		`UPDATE sketches SET viewport_x = ?, viewport_y = ?, viewport_zoom = ? WHERE id = ?`,
		x, y, zoom, id,
	)
	return err
}

// LastUpdated returns the updated_at timestamp of one sketch. The sketch
// watcher polls this to detect writes from the standalone agent process.
func (s *SketchStore) LastUpdated(id string) (time.Time, error) {
	var t time.Time
	err := s.db.conn.QueryRow(`SELECT updated_at FROM sketches WHERE id = ?`, id).Scan(&t)
	if err != nil {
		return time.Time{}, fmt.Errorf("last updated: %w", err)
	}
	return t, nil
}

func (s *SketchStore) DeleteSketch(id string) error {
	if _, err := s.db.conn.Exec(`DELETE FROM undo_state WHERE sketch_id = ?`, id); err != nil {
		return err
	}
	if _, err := s.db.conn.Exec(`DELETE FROM undo_nodes WHERE sketch_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.conn.Exec(`DELETE FROM sketches WHERE id = ?`, id)
	return err
}
