package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	entsql "entgo.io/ent/dialect/sql"
)

// snapshotRepo implements SnapshotRepo.
type snapshotRepo struct {
	s *Store
}

func (r *snapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	if err := requireLearner(snap.LearnerID); err != nil {
		return err
	}
	if snap.Data.Version == 0 {
		snap.Data.Version = SnapshotVersion
	}
	b, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}

	seq, err := r.s.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	q, args := r.s.builder().Insert(SnapshotsTable.Name).
		Columns("sequence", "learner_id", "timestamp", "data").
		Values(seq, snap.LearnerID, toMillis(snap.Timestamp), string(b)).
		Query()
	if _, err := r.s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	snap.Sequence = seq
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context, learnerID string) (*Snapshot, error) {
	snaps, err := r.list(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

func (r *snapshotRepo) Prune(ctx context.Context, learnerID string, keep int) error {
	snaps, err := r.list(ctx, learnerID)
	if err != nil {
		return err
	}
	if len(snaps) <= keep {
		return nil // fewer than keep snapshots exist
	}

	threshold := snaps[keep].Sequence
	q, args := r.s.builder().Delete(SnapshotsTable.Name).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.LTE("sequence", threshold),
		)).
		Query()
	if _, err := r.s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// list returns a learner's snapshots, newest first.
func (r *snapshotRepo) list(ctx context.Context, learnerID string) ([]Snapshot, error) {
	var snaps []Snapshot
	err := r.s.selectWhere(ctx, SnapshotsTable.Name, learnerID,
		[]string{"id", "sequence", "learner_id", "timestamp", "data"},
		func(rows *sql.Rows) error {
			var s Snapshot
			var ts int64
			var data string
			if err := rows.Scan(&s.ID, &s.Sequence, &s.LearnerID, &ts, &data); err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(data), &s.Data); err != nil {
				return fmt.Errorf("unmarshal snapshot data: %w", err)
			}
			s.Timestamp = fromMillis(ts)
			snaps = append(snaps, s)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Sequence > snaps[j].Sequence })
	return snaps, nil
}
