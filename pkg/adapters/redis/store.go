package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/chatter/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "chatter:"

// Option configures the redis stores.
type Option func(*options)

type options struct {
	prefix string
	now    func() time.Time
}

// WithPrefix sets a custom key prefix (default: "chatter:").
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithClock overrides the clock used to stamp UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{prefix: DefaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient dials redis with the given address, password and db.
func NewClient(addr, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// createScript inserts a node only when its key is free and appends it to the order index.
// KEYS: node key, order index, sequence. ARGV: record json, node id.
var createScript = backend.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1])
local seq = redis.call("INCR", KEYS[3])
redis.call("ZADD", KEYS[2], seq, ARGV[2])
return 1
`)

// NodeStore implements ports.NodeStore using Redis.
// Each node is a JSON rule record; a sorted set scored by an INCR sequence keeps insertion order.
type NodeStore struct {
	client *backend.Client
	opts   options
}

// NewNodeStore creates a node store from an existing client.
func NewNodeStore(client *backend.Client, opts ...Option) *NodeStore {
	return &NodeStore{client: client, opts: buildOptions(opts)}
}

func (s *NodeStore) key(id string) string {
	return s.opts.prefix + "node:" + id
}

func (s *NodeStore) indexKey() string {
	return s.opts.prefix + "nodes"
}

func (s *NodeStore) seqKey() string {
	return s.opts.prefix + "seq"
}

func (s *NodeStore) encode(node domain.Node) ([]byte, error) {
	rec := domain.RecordFromNode(node)
	rec.UpdatedAt = s.opts.now().UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal node %s: %w", node.ID, err)
	}
	return data, nil
}

func decode(data []byte) (domain.Node, error) {
	var rec domain.RuleRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Node{}, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	return rec.Node()
}

// List returns every node following the order index.
func (s *NodeStore) List(ctx context.Context) ([]domain.Node, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read node index: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Node{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read nodes: %w", err)
	}

	nodes := make([]domain.Node, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a record; a concurrent delete is in progress.
			continue
		}
		n, err := decode([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", ids[i], err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Get retrieves a node by id.
func (s *NodeStore) Get(ctx context.Context, id string) (domain.Node, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Node{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
		}
		return domain.Node{}, fmt.Errorf("failed to get node %s: %w", id, err)
	}
	return decode(data)
}

// Create inserts a node atomically with its order entry.
func (s *NodeStore) Create(ctx context.Context, node domain.Node) error {
	data, err := s.encode(node)
	if err != nil {
		return err
	}
	keys := []string{s.key(node.ID), s.indexKey(), s.seqKey()}
	created, err := createScript.Run(ctx, s.client, keys, data, node.ID).Int()
	if err != nil {
		return fmt.Errorf("failed to create node %s: %w", node.ID, err)
	}
	if created == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateID, node.ID)
	}
	return nil
}

// Update replaces an existing node without touching its position.
func (s *NodeStore) Update(ctx context.Context, node domain.Node) error {
	data, err := s.encode(node)
	if err != nil {
		return err
	}
	ok, err := s.client.SetXX(ctx, s.key(node.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update node %s: %w", node.ID, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, node.ID)
	}
	return nil
}

// Delete removes a node and its order entry.
func (s *NodeStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete node %s: %w", id, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	return nil
}

// SubmissionStore implements ports.SubmissionStore as a redis list of JSON documents.
type SubmissionStore struct {
	client *backend.Client
	opts   options
}

// NewSubmissionStore creates a submission store from an existing client.
func NewSubmissionStore(client *backend.Client, opts ...Option) *SubmissionStore {
	return &SubmissionStore{client: client, opts: buildOptions(opts)}
}

func (s *SubmissionStore) key() string {
	return s.opts.prefix + "submissions"
}

// Save appends a submission to the list.
func (s *SubmissionStore) Save(ctx context.Context, sub *domain.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}
	if err := s.client.RPush(ctx, s.key(), data).Err(); err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

// List returns every submission, oldest first.
func (s *SubmissionStore) List(ctx context.Context) ([]*domain.Submission, error) {
	raw, err := s.client.LRange(ctx, s.key(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	subs := make([]*domain.Submission, 0, len(raw))
	for _, r := range raw {
		var sub domain.Submission
		if err := json.Unmarshal([]byte(r), &sub); err != nil {
			return nil, fmt.Errorf("failed to unmarshal submission: %w", err)
		}
		subs = append(subs, &sub)
	}
	return subs, nil
}
