package trackhistory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aircraft_db/internal/db"
)

// Truncate compacts h down to two states: the first state is kept verbatim
// and every later state is folded into a single merged row, later non-null
// values winning. The merged row gets a fresh identifier and the sequence
// number of the last folded state. Preserved histories, and histories with
// fewer than two states, are left alone.
func (r *Repository) Truncate(ctx context.Context, h *TrackHistory) (RetentionResult, error) {
	var result RetentionResult
	if h == nil || h.ID == 0 || h.IsPreserved {
		return result, nil
	}
	if _, ok, err := r.writer(); err != nil || !ok {
		return result, err
	}
	err := r.inTransaction(ctx, func(q db.Queryer) error {
		var err error
		result, err = r.truncateHistory(ctx, q, h.ID)
		return err
	})
	return result, err
}

func (r *Repository) truncateHistory(ctx context.Context, q db.Queryer, historyID int64) (RetentionResult, error) {
	var result RetentionResult

	states, err := r.statesByHistory(ctx, q, historyID)
	if err != nil {
		return result, err
	}
	if len(states) < 2 {
		return result, nil
	}

	merged := *states[1]
	for _, s := range states[2:] {
		merged.mergeFrom(s)
	}

	result.CountHistories = 1
	result.CountStates = len(states) - 1
	for _, s := range states[1:] {
		result.observe(s.CreatedUtc)
	}

	// The merged row reuses the last state's sequence number, so the old
	// rows have to go before it can come back in.
	if err := r.deleteStates(ctx, q, states[1:]); err != nil {
		return result, err
	}
	merged.ID = 0
	if err := r.insertState(ctx, q, &merged); err != nil {
		return result, err
	}
	return result, nil
}

func (r *Repository) deleteStates(ctx context.Context, q db.Queryer, states []*TrackHistoryState) error {
	a := r.newArgs()
	placeholders := make([]string, len(states))
	for i, s := range states {
		placeholders[i] = a.add(s.ID)
	}
	query := `DELETE FROM TrackHistoryState WHERE TrackHistoryStateID IN (` + strings.Join(placeholders, ", ") + `)`
	if _, err := q.ExecContext(ctx, query, a.args...); err != nil {
		return fmt.Errorf("delete states: %w", err)
	}
	return nil
}

// TruncateExpired compacts every unpreserved history created at or before
// thresholdUtc. The whole pass runs in one transaction.
func (r *Repository) TruncateExpired(ctx context.Context, thresholdUtc time.Time) (RetentionResult, error) {
	var result RetentionResult
	if _, ok, err := r.writer(); err != nil || !ok {
		return result, err
	}
	err := r.inTransaction(ctx, func(q db.Queryer) error {
		ids, err := r.expiredHistoryIDs(ctx, q, thresholdUtc)
		if err != nil {
			return err
		}
		for _, id := range ids {
			one, err := r.truncateHistory(ctx, q, id)
			if err != nil {
				return err
			}
			result.add(one)
		}
		return nil
	})
	if err != nil {
		return RetentionResult{}, err
	}
	return result, nil
}

// DeleteExpired removes every unpreserved history created at or before
// thresholdUtc, states and all. When an archive sink is configured each
// history's states are handed to it first; a sink failure stops the pass
// before that history is touched.
func (r *Repository) DeleteExpired(ctx context.Context, thresholdUtc time.Time) (RetentionResult, error) {
	var result RetentionResult
	q, ok, err := r.writer()
	if err != nil || !ok {
		return result, err
	}

	a := r.newArgs()
	query := fmt.Sprintf(`
		SELECT %s FROM TrackHistory
		WHERE IsPreserved = 0 AND CreatedUtc <= %s
		ORDER BY CreatedUtc, TrackHistoryID`,
		historyColumns, a.add(r.bindTime(thresholdUtc)))
	rows, err := q.QueryContext(ctx, query, a.args...)
	if err != nil {
		return result, fmt.Errorf("list expired histories: %w", err)
	}
	var expired []*TrackHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			rows.Close()
			return result, fmt.Errorf("scan expired history: %w", err)
		}
		expired = append(expired, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return result, err
	}

	for _, h := range expired {
		states, err := r.statesByHistory(ctx, q, h.ID)
		if err != nil {
			return result, err
		}
		if r.archive != nil && len(states) > 0 {
			if err := r.archive.ArchiveStates(ctx, h, states); err != nil {
				return result, fmt.Errorf("archive history %d: %w", h.ID, err)
			}
		}
		if err := r.inTransaction(ctx, func(q db.Queryer) error {
			return r.deleteHistory(ctx, q, h.ID)
		}); err != nil {
			return result, err
		}
		result.CountHistories++
		result.CountStates += len(states)
		if len(states) == 0 {
			result.observe(h.CreatedUtc)
		}
		for _, s := range states {
			result.observe(s.CreatedUtc)
		}
	}
	return result, nil
}

func (r *Repository) expiredHistoryIDs(ctx context.Context, q db.Queryer, thresholdUtc time.Time) ([]int64, error) {
	a := r.newArgs()
	query := fmt.Sprintf(`
		SELECT TrackHistoryID FROM TrackHistory
		WHERE IsPreserved = 0 AND CreatedUtc <= %s
		ORDER BY CreatedUtc, TrackHistoryID`,
		a.add(r.bindTime(thresholdUtc)))
	rows, err := q.QueryContext(ctx, query, a.args...)
	if err != nil {
		return nil, fmt.Errorf("list expired histories: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired history id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
