package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// UndoNode represents a single undo history entry.
type UndoNode struct {
	ID           string    `json:"id"`
	SketchID     string    `json:"sketchId"`
	ParentID     *string   `json:"parentId"`
	Label        string    `json:"label"`
	SnapshotJSON string    `json:"snapshotJson"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UndoTree is the full history returned to the frontend.
type UndoTree struct {
	Nodes     []UndoNode `json:"nodes"`
	CurrentID string     `json:"currentId"`
	RootID    string     `json:"rootId"`
}

// UndoStore manages per-sketch undo history in SQLite.
type UndoStore struct {
	db *DB
}

func NewUndoStore(db *DB) *UndoStore {
	return &UndoStore{db: db}
}

// LoadTree returns the full undo tree for a sketch, or nil when none exists.
func (s *UndoStore) LoadTree(sketchID string) (*UndoTree, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, sketch_id, parent_id, label, snapshot_json, created_at
		 FROM undo_nodes WHERE sketch_id = ? ORDER BY created_at ASC`, sketchID,
	)
	if err != nil {
		return nil, fmt.Errorf("load undo nodes: %w", err)
	}
	defer rows.Close()

	var nodes []UndoNode
	var rootID string
	for rows.Next() {
		var n UndoNode
		if err := rows.Scan(&n.ID, &n.SketchID, &n.ParentID, &n.Label, &n.SnapshotJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan undo node: %w", err)
		}
		if n.ParentID == nil {
			rootID = n.ID
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return nil, nil
	}

	var currentID string
	err = s.db.Conn().QueryRow(
		`SELECT current_node_id FROM undo_state WHERE sketch_id = ?`, sketchID,
	).Scan(&currentID)
	if err != nil {
		currentID = rootID
	}

	return &UndoTree{
		Nodes:     nodes,
		CurrentID: currentID,
		RootID:    rootID,
	}, nil
}

// PushNode creates a new undo node with the given ID under the specified
// parent. Both nodeID and parentID come from the frontend so the two sides
// agree on identity.
func (s *UndoStore) PushNode(sketchID, nodeID, parentID, label, snapshotJSON string) (*UndoNode, error) {
	now := time.Now()

	var pID *string
	if parentID != "" {
		pID = &parentID
	}

	_, err := s.db.Conn().Exec(
		`INSERT INTO undo_nodes (id, sketch_id, parent_id, label, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nodeID, sketchID, pID, label, snapshotJSON, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert undo node: %w", err)
	}

	_, err = s.db.Conn().Exec(
		`INSERT INTO undo_state (sketch_id, current_node_id) VALUES (?, ?)
		 ON CONFLICT(sketch_id) DO UPDATE SET current_node_id = excluded.current_node_id`,
		sketchID, nodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("update undo state: %w", err)
	}

	s.pruneIfNeeded(sketchID, 40)

	return &UndoNode{
		ID:           nodeID,
		SketchID:     sketchID,
		ParentID:     pID,
		Label:        label,
		SnapshotJSON: snapshotJSON,
		CreatedAt:    now,
	}, nil
}

// GoTo updates the current position pointer.
func (s *UndoStore) GoTo(sketchID, nodeID string) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO undo_state (sketch_id, current_node_id) VALUES (?, ?)
		 ON CONFLICT(sketch_id) DO UPDATE SET current_node_id = excluded.current_node_id`,
		sketchID, nodeID,
	)
	return err
}

// GetSnapshot returns the serialized elements stored at one node.
func (s *UndoStore) GetSnapshot(nodeID string) (string, error) {
	var snapshot string
	err := s.db.Conn().QueryRow(
		`SELECT snapshot_json FROM undo_nodes WHERE id = ?`, nodeID,
	).Scan(&snapshot)
	if err != nil {
		return "", fmt.Errorf("get undo snapshot: %w", err)
	}
	return snapshot, nil
}

// ClearSketch removes all undo data for a sketch.
func (s *UndoStore) ClearSketch(sketchID string) error {
	_, _ = s.db.Conn().Exec(`DELETE FROM undo_state WHERE sketch_id = ?`, sketchID)
	_, err := s.db.Conn().Exec(`DELETE FROM undo_nodes WHERE sketch_id = ?`, sketchID)
	return err
}

// pruneIfNeeded removes the oldest nodes when the count exceeds maxNodes,
// reparenting children so the tree stays connected.
func (s *UndoStore) pruneIfNeeded(sketchID string, maxNodes int) {
	var count int
	s.db.Conn().QueryRow(`SELECT COUNT(*) FROM undo_nodes WHERE sketch_id = ?`, sketchID).Scan(&count)
	if count <= maxNodes {
		return
	}

	toDelete := count - maxNodes

	// Resolve the current node before opening a rows cursor; SQLite holds a
	// single connection here and nested queries would deadlock.
	var currentID string
	s.db.Conn().QueryRow(`SELECT current_node_id FROM undo_state WHERE sketch_id = ?`, sketchID).Scan(&currentID)

	rows, err := s.db.Conn().Query(
		`SELECT id FROM undo_nodes WHERE sketch_id = ?
		 ORDER BY created_at ASC LIMIT ?`, sketchID, toDelete,
	)
	if err != nil {
		return
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		if id != currentID {
			ids = append(ids, id)
		}
	}
	rows.Close()

	for _, id := range ids {
		var parentID sql.NullString
		s.db.Conn().QueryRow(`SELECT parent_id FROM undo_nodes WHERE id = ?`, id).Scan(&parentID)

		if parentID.Valid {
			s.db.Conn().Exec(
				`UPDATE undo_nodes SET parent_id = ? WHERE parent_id = ?`,
				parentID.String, id,
			)
		} else {
			s.db.Conn().Exec(
				`UPDATE undo_nodes SET parent_id = NULL WHERE parent_id = ?`, id,
			)
		}

		s.db.Conn().Exec(`DELETE FROM undo_nodes WHERE id = ?`, id)
	}
}
