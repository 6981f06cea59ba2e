package snapshot

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/metrics"
)

// ErrNotFound is returned when no snapshot matches.
var ErrNotFound = errors.New("snapshot: not found")

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Snapshot is one stored capture of a node's registry as wire text.
type Snapshot struct {
	ID        string    `json:"id"`
	Node      string    `json:"node"`
	Digest    string    `json:"digest"`
	Entries   int       `json:"entries"`
	RawSize   int       `json:"raw_size"`
	CreatedAt time.Time `json:"created_at"`

	// Text is only filled by Get and Latest.
	Text string `json:"-"`
}

// zstd encoder and decoder are safe for concurrent EncodeAll/DecodeAll.
var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("snapshot: zstd encoder initialization failed: " + err.Error())
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("snapshot: zstd decoder initialization failed: " + err.Error())
	}
}

// Digest returns the hex BLAKE3-256 digest of text.
func Digest(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Repository stores snapshots in SQLite. The snapshots table is created by
// the embedded migrations.
type Repository struct {
	db      *sql.DB
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRepository creates a repository over db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// SetMetrics sets the collectors updated on Save.
func (r *Repository) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

func (r *Repository) record(result string) {
	if r.metrics != nil {
		r.metrics.RecordSnapshot(result)
	}
}

// Save stores text as the newest snapshot of node. When text is identical to
// the node's latest snapshot nothing is written and the latest is returned
// with saved false.
func (r *Repository) Save(ctx context.Context, node, text string) (Snapshot, bool, error) {
	if node == "" {
		r.record(metrics.SnapshotFailed)
		return Snapshot{}, false, errors.New("snapshot: node is required")
	}
	digest := Digest(text)

	latest, err := r.latestMeta(ctx, node)
	switch {
	case err == nil && latest.Digest == digest:
		r.record(metrics.SnapshotDeduplicated)
		return latest, false, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		r.record(metrics.SnapshotFailed)
		return Snapshot{}, false, err
	}

	s := Snapshot{
		ID:        uuid.NewString(),
		Node:      node,
		Digest:    digest,
		Entries:   countObjects(text),
		RawSize:   len(text),
		CreatedAt: r.now().UTC(),
	}
	payload := encoder.EncodeAll([]byte(text), nil)

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, node, digest, entries, raw_size, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Node, s.Digest, s.Entries, s.RawSize, payload, s.CreatedAt.UnixMilli(),
	)
	if err != nil {
		r.record(metrics.SnapshotFailed)
		return Snapshot{}, false, fmt.Errorf("inserting snapshot: %w", err)
	}
	r.record(metrics.SnapshotSaved)
	return s, true, nil
}

const metaColumns = `id, node, digest, entries, raw_size, created_at`

func (r *Repository) latestMeta(ctx context.Context, node string) (Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+metaColumns+` FROM snapshots
		 WHERE node = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, node)
	return scanMeta(row)
}

// Latest returns the newest snapshot of node, with its text.
func (r *Repository) Latest(ctx context.Context, node string) (Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+metaColumns+`, payload FROM snapshots
		 WHERE node = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, node)
	return scanFull(row)
}

// Get returns the snapshot with the given id, with its text.
func (r *Repository) Get(ctx context.Context, id string) (Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+metaColumns+`, payload FROM snapshots WHERE id = ?`, id)
	return scanFull(row)
}

// List returns snapshot metadata, newest first. An empty node lists every
// node. limit defaults to 50 and is capped at 500.
func (r *Repository) List(ctx context.Context, node string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := `SELECT ` + metaColumns + ` FROM snapshots`
	args := []any{}
	if node != "" {
		query += ` WHERE node = ?`
		args = append(args, node)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	out := []Snapshot{}
	for rows.Next() {
		s, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return out, nil
}

// Prune deletes snapshots created before cutoff, always keeping each node's
// newest. It returns the number deleted.
func (r *Repository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM snapshots
		 WHERE created_at < ?
		   AND id NOT IN (
		     SELECT s.id FROM snapshots s
		     WHERE s.rowid = (
		       SELECT t.rowid FROM snapshots t WHERE t.node = s.node
		       ORDER BY t.created_at DESC, t.rowid DESC LIMIT 1))`,
		cutoff.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeta(row scanner) (Snapshot, error) {
	var s Snapshot
	var created int64
	err := row.Scan(&s.ID, &s.Node, &s.Digest, &s.Entries, &s.RawSize, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("scanning snapshot: %w", err)
	}
	s.CreatedAt = time.UnixMilli(created).UTC()
	return s, nil
}

func scanFull(row scanner) (Snapshot, error) {
	var s Snapshot
	var created int64
	var payload []byte
	err := row.Scan(&s.ID, &s.Node, &s.Digest, &s.Entries, &s.RawSize, &created, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("scanning snapshot: %w", err)
	}
	s.CreatedAt = time.UnixMilli(created).UTC()

	text, err := decoder.DecodeAll(payload, make([]byte, 0, s.RawSize))
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s: zstd decompress: %w", s.ID, err)
	}
	if len(text) != s.RawSize {
		return Snapshot{}, fmt.Errorf("snapshot %s: got %d bytes, expected %d", s.ID, len(text), s.RawSize)
	}
	s.Text = string(text)
	return s, nil
}

// countObjects counts the top-level {...} objects in wire text.
func countObjects(text string) int {
	n, depth := 0, 0
	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				n++
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return n
}
