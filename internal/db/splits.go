package db

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/susu3304/sharetabbot/internal/pricing"
)

const maxListLimit = 100

type Charge struct {
	Participant string  `json:"participant"`
	Amount      float64 `json:"amount"`
}

// SplitRecord is one finished calculation.
type SplitRecord struct {
	ID           uuid.UUID `json:"id"`
	ChannelID    string    `json:"channel_id"`
	Method       string    `json:"method"`
	Participants []string  `json:"participants"`
	Charges      []Charge  `json:"charges"`
	Total        float64   `json:"total"`
	CreatedAt    time.Time `json:"created_at"`
}

// orderedCharges lists charges in participant order, then any names only the
// calculator returned, alphabetically.
func orderedCharges(participants []string, charges map[string]float64) []Charge {
	out := make([]Charge, 0, len(charges))
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if amount, ok := charges[p]; ok && !seen[p] {
			out = append(out, Charge{Participant: p, Amount: amount})
			seen[p] = true
		}
	}
	var extra []string
	for name := range charges {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		out = append(out, Charge{Participant: name, Amount: charges[name]})
	}
	return out
}

// RecordSplit stores a finished calculation with its per-person charges.
func (db *DB) RecordSplit(ctx context.Context, channelID string, method pricing.Method, participants []string, res *pricing.Result) error {
	if res == nil {
		return errors.New("record split: nil result")
	}
	id := uuid.New()

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO split_history (id, channel_id, method, participants, total)
         VALUES ($1::uuid, $2, $3, $4, $5)`,
		id.String(), channelID, method.String(), participants, res.GrandTotal(),
	); err != nil {
		return errors.Wrap(err, "insert split")
	}

	for pos, c := range orderedCharges(participants, res.PerPersonCharges) {
		if _, err := tx.Exec(ctx,
			`INSERT INTO split_charges (split_id, position, participant, amount) VALUES ($1::uuid, $2, $3, $4)`,
			id.String(), pos, c.Participant, c.Amount,
		); err != nil {
			return errors.Wrap(err, "insert charge")
		}
	}

	return errors.Wrap(tx.Commit(ctx), "commit split")
}

// ListSplits returns the most recent splits of a channel, newest first.
func (db *DB) ListSplits(ctx context.Context, channelID string, limit int) ([]SplitRecord, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id::text, channel_id, method, participants, total, created_at
         FROM split_history
         WHERE channel_id = $1
         ORDER BY created_at DESC
         LIMIT $2`,
		channelID, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query splits")
	}
	defer rows.Close()

	var (
		records []SplitRecord
		ids     []string
		index   = make(map[string]int)
	)
	for rows.Next() {
		var (
			rawID string
			r     SplitRecord
		)
		if err := rows.Scan(&rawID, &r.ChannelID, &r.Method, &r.Participants, &r.Total, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan split")
		}
		if r.ID, err = uuid.Parse(rawID); err != nil {
			return nil, errors.Wrap(err, "parse split id")
		}
		r.Charges = []Charge{}
		index[rawID] = len(records)
		ids = append(ids, rawID)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate splits")
	}
	if len(records) == 0 {
		return []SplitRecord{}, nil
	}

	crows, err := db.pool.Query(ctx,
		`SELECT split_id::text, participant, amount
         FROM split_charges
         WHERE split_id = ANY($1::uuid[])
         ORDER BY split_id, position`,
		ids,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query charges")
	}
	defer crows.Close()

	for crows.Next() {
		var (
			splitID string
			c       Charge
		)
		if err := crows.Scan(&splitID, &c.Participant, &c.Amount); err != nil {
			return nil, errors.Wrap(err, "scan charge")
		}
		if i, ok := index[splitID]; ok {
			records[i].Charges = append(records[i].Charges, c)
		}
	}
	return records, errors.Wrap(crows.Err(), "iterate charges")
}
