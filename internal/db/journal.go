package db

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"transfer-dapp-api/internal/model"
)

var ErrUnknownSubmission = errors.New("unknown submission")

// Save inserts the submission or updates its status, hashes and reason.
func (s *Store) Save(ctx context.Context, sub model.Submission) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO submissions
		(id, from_address, to_address, amount, message, keyword, status, value_tx_hash, record_tx_hash, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = $7, value_tx_hash = $8, record_tx_hash = $9, reason = $10, updated_at = NOW()`,
		sub.ID, sub.From, sub.To, sub.Amount, sub.Message, sub.Keyword,
		string(sub.Status), sub.ValueTxHash, sub.RecordTxHash, sub.Reason)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*model.Submission, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT id, from_address, to_address, amount, message, keyword,
		status, value_tx_hash, record_tx_hash, reason, created_at, updated_at
		FROM submissions WHERE id = $1`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownSubmission
		}
		return nil, err
	}
	return sub, nil
}

// Unreconciled lists submissions whose value moved without a ledger record.
func (s *Store) Unreconciled(ctx context.Context) ([]model.Submission, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, from_address, to_address, amount, message, keyword,
		status, value_tx_hash, record_tx_hash, reason, created_at, updated_at
		FROM submissions WHERE status = $1 ORDER BY created_at`, string(model.SubmissionUnrecorded))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row scanner) (*model.Submission, error) {
	var sub model.Submission
	var status string
	err := row.Scan(&sub.ID, &sub.From, &sub.To, &sub.Amount, &sub.Message, &sub.Keyword,
		&status, &sub.ValueTxHash, &sub.RecordTxHash, &sub.Reason, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sub.Status = model.SubmissionStatus(status)
	return &sub, nil
}

// MemoryJournal keeps submissions in process; used without DATABASE_URL.
type MemoryJournal struct {
	mu   sync.Mutex
	subs map[string]model.Submission
	now  func() time.Time
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{subs: make(map[string]model.Submission), now: time.Now}
}

func (m *MemoryJournal) Save(ctx context.Context, sub model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if prev, ok := m.subs[sub.ID]; ok {
		sub.CreatedAt = prev.CreatedAt
	} else {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	m.subs[sub.ID] = sub
	return nil
}

func (m *MemoryJournal) Get(ctx context.Context, id string) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok {
		return nil, ErrUnknownSubmission
	}
	return &sub, nil
}

func (m *MemoryJournal) Unreconciled(ctx context.Context) ([]model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var subs []model.Submission
	for _, sub := range m.subs {
		if sub.Status == model.SubmissionUnrecorded {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}
