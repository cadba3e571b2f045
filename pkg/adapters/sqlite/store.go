// Package sqlite persists the flow graph and captured leads in SQLite.
//
// The stores take an *sql.DB that uses the pure-Go "modernc.org/sqlite" driver.
// Open registers the driver and prepares a handle suitable for a single process.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/ports"
	_ "modernc.org/sqlite"
)

var (
	_ ports.NodeStore       = (*NodeStore)(nil)
	_ ports.SubmissionStore = (*SubmissionStore)(nil)
)

// Open opens (or creates) the database at path. Use ":memory:" for a throwaway database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// SQLite serializes writers; one connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}
	return db, nil
}

// NodeStore is a ports.NodeStore backed by the nodes table.
type NodeStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewNodeStore initializes the schema and returns a store.
func NewNodeStore(db *sql.DB) (*NodeStore, error) {
	s := &NodeStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *NodeStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS nodes (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			node_id TEXT NOT NULL UNIQUE,
			rule_data TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	)
	if err != nil {
		return fmt.Errorf("failed to create nodes table: %w", err)
	}
	return nil
}

func scanNode(seq int64, nodeID, ruleData, updatedAt string) (domain.Node, error) {
	rec := domain.RuleRecord{ID: seq, NodeID: nodeID}
	if err := json.Unmarshal([]byte(ruleData), &rec.RuleData); err != nil {
		return domain.Node{}, fmt.Errorf("node %s: failed to decode rule data: %w", nodeID, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		rec.UpdatedAt = t
	}
	return rec.Node()
}

func encodeRule(n domain.Node) (string, error) {
	data, err := json.Marshal(domain.RecordFromNode(n).RuleData)
	if err != nil {
		return "", fmt.Errorf("failed to encode node %s: %w", n.ID, err)
	}
	return string(data), nil
}

// List returns every node in insertion order.
func (s *NodeStore) List(ctx context.Context) ([]domain.Node, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, node_id, rule_data, updated_at FROM nodes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []domain.Node{}
	for rows.Next() {
		var seq int64
		var nodeID, ruleData, updatedAt string
		if err := rows.Scan(&seq, &nodeID, &ruleData, &updatedAt); err != nil {
			return nil, err
		}
		n, err := scanNode(seq, nodeID, ruleData, updatedAt)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Get retrieves a node by id.
func (s *NodeStore) Get(ctx context.Context, id string) (domain.Node, error) {
	row := s.db.QueryRowContext(ctx, `SELECT seq, node_id, rule_data, updated_at FROM nodes WHERE node_id = ?`, id)

	var seq int64
	var nodeID, ruleData, updatedAt string
	if err := row.Scan(&seq, &nodeID, &ruleData, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Node{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
		}
		return domain.Node{}, fmt.Errorf("failed to get node %s: %w", id, err)
	}
	return scanNode(seq, nodeID, ruleData, updatedAt)
}

// Create inserts a node. The unique node_id column rejects duplicates.
func (s *NodeStore) Create(ctx context.Context, node domain.Node) error {
	rule, err := encodeRule(node)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO nodes (node_id, rule_data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(node_id) DO NOTHING`,
		node.ID, rule, s.stamp(),
	)
	if err != nil {
		return fmt.Errorf("failed to create node %s: %w", node.ID, err)
	}
	return expectRow(res, fmt.Errorf("%w: %s", domain.ErrDuplicateID, node.ID))
}

// Update replaces an existing node, keeping its seq.
func (s *NodeStore) Update(ctx context.Context, node domain.Node) error {
	rule, err := encodeRule(node)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE nodes SET rule_data = ?, updated_at = ? WHERE node_id = ?`,
		rule, s.stamp(), node.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update node %s: %w", node.ID, err)
	}
	return expectRow(res, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, node.ID))
}

// Delete removes a node.
func (s *NodeStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE node_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete node %s: %w", id, err)
	}
	return expectRow(res, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id))
}

func (s *NodeStore) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func expectRow(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return missing
	}
	return nil
}

// SubmissionStore is a ports.SubmissionStore backed by the submissions table.
type SubmissionStore struct {
	db *sql.DB
}

// NewSubmissionStore initializes the schema and returns a store.
func NewSubmissionStore(db *sql.DB) (*SubmissionStore, error) {
	s := &SubmissionStore{db: db}
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			client_id TEXT NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL,
			message TEXT NOT NULL,
			submitted_at TEXT NOT NULL
		);`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create submissions table: %w", err)
	}
	return s, nil
}

// Save inserts a submission.
func (s *SubmissionStore) Save(ctx context.Context, sub *domain.Submission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, client_id, name, email, phone, message, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.ClientID, sub.Name, sub.Email, sub.Phone, sub.Message,
		sub.SubmittedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save submission %s: %w", sub.ID, err)
	}
	return nil
}

// List returns every submission, oldest first.
func (s *SubmissionStore) List(ctx context.Context) ([]*domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, name, email, phone, message, submitted_at
		FROM submissions
		ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	subs := []*domain.Submission{}
	for rows.Next() {
		var sub domain.Submission
		var at string
		if err := rows.Scan(&sub.ID, &sub.ClientID, &sub.Name, &sub.Email, &sub.Phone, &sub.Message, &at); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("submission %s: bad timestamp: %w", sub.ID, err)
		}
		sub.SubmittedAt = t
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}
