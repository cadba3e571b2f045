// Package file keeps the flow graph in a single YAML document and leads in a JSON file.
// Writes go to a temp file in the same directory and are renamed into place.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/ports"
	"gopkg.in/yaml.v3"
)

var (
	_ ports.NodeStore       = (*NodeStore)(nil)
	_ ports.SubmissionStore = (*SubmissionStore)(nil)
)

// DefaultPath is where the flow document lives when no path is configured.
var DefaultPath = filepath.Join(".chatter", "flow.yaml")

// flowDocument is the on-disk layout of the flow file.
type flowDocument struct {
	Nodes []domain.RuleRecord `yaml:"nodes"`
}

// NodeStore implements ports.NodeStore on top of a YAML flow document.
// The document order is the insertion order.
type NodeStore struct {
	mu   sync.Mutex
	path string
}

// NewNodeStore creates a store for the document at path.
// If path is empty, it defaults to DefaultPath. The file is created on first write.
func NewNodeStore(path string) *NodeStore {
	if path == "" {
		path = DefaultPath
	}
	return &NodeStore{path: path}
}

// Path returns the flow document location.
func (s *NodeStore) Path() string {
	return s.path
}

func (s *NodeStore) read() (*flowDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &flowDocument{}, nil
		}
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	var doc flowDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse flow file %s: %w", s.path, err)
	}
	return &doc, nil
}

func (s *NodeStore) write(doc *flowDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}
	return writeAtomic(s.path, data)
}

func (d *flowDocument) index(id string) int {
	for i, rec := range d.Nodes {
		if rec.NodeID == id {
			return i
		}
	}
	return -1
}

// List returns every node in document order.
func (s *NodeStore) List(ctx context.Context) ([]domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	nodes := make([]domain.Node, 0, len(doc.Nodes))
	for _, rec := range doc.Nodes {
		n, err := rec.Node()
		if err != nil {
			return nil, fmt.Errorf("flow file %s: %w", s.path, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Get retrieves a node by id.
func (s *NodeStore) Get(ctx context.Context, id string) (domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return domain.Node{}, err
	}
	i := doc.index(id)
	if i < 0 {
		return domain.Node{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	return doc.Nodes[i].Node()
}

// Create appends a node to the document.
func (s *NodeStore) Create(ctx context.Context, node domain.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if doc.index(node.ID) >= 0 {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateID, node.ID)
	}
	doc.Nodes = append(doc.Nodes, domain.RecordFromNode(node))
	return s.write(doc)
}

// Update replaces a node in place.
func (s *NodeStore) Update(ctx context.Context, node domain.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	i := doc.index(node.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, node.ID)
	}
	doc.Nodes[i] = domain.RecordFromNode(node)
	return s.write(doc)
}

// Delete removes a node from the document.
func (s *NodeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	i := doc.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	doc.Nodes = append(doc.Nodes[:i], doc.Nodes[i+1:]...)
	return s.write(doc)
}

// SubmissionStore keeps captured leads as a JSON array.
type SubmissionStore struct {
	mu   sync.Mutex
	path string
}

// NewSubmissionStore creates a store for the JSON file at path.
func NewSubmissionStore(path string) *SubmissionStore {
	if path == "" {
		path = filepath.Join(".chatter", "submissions.json")
	}
	return &SubmissionStore{path: path}
}

func (s *SubmissionStore) read() ([]*domain.Submission, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*domain.Submission{}, nil
		}
		return nil, fmt.Errorf("failed to read submissions file: %w", err)
	}
	subs := []*domain.Submission{}
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("failed to parse submissions file %s: %w", s.path, err)
	}
	return subs, nil
}

// Save appends a submission.
func (s *SubmissionStore) Save(ctx context.Context, sub *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.read()
	if err != nil {
		return err
	}
	subs = append(subs, sub)
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal submissions: %w", err)
	}
	return writeAtomic(s.path, data)
}

// List returns every submission, oldest first.
func (s *SubmissionStore) List(ctx context.Context) ([]*domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// writeAtomic writes data to a temp file next to dest, fsyncs it and renames it over dest.
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-"+filepath.Base(dest)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename does not replace an existing file on Windows.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace %s: %w", dest, err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", dest, err)
	}
	return nil
}
