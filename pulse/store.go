package pulse

import (
	"database/sql"
	"time"

	"github.com/teranos/gitpulse/errors"
)

// Store persists commit outcomes to the append-only commit_log table
type Store struct {
	db *sql.DB
}

// NewStore creates a commit-log store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Stats aggregates the commit log for the /api/stats endpoint
type Stats struct {
	TotalAttempts  int            `json:"total_attempts"`
	TotalCommits   int            `json:"total_commits"`
	SuccessRate    float64        `json:"success_rate"`
	AIUsageRate    float64        `json:"ai_usage_rate"`
	CommitsLast24h int            `json:"commits_last_24h"`
	ByErrorKind    map[string]int `json:"by_error_kind"`
	Daily          []DayCount     `json:"daily"`
}

// DayCount is one day's successful commit count, day formatted YYYY-MM-DD
type DayCount struct {
	Day     string `json:"day"`
	Commits int    `json:"commits"`
}

// RecordOutcome appends one outcome to the commit log
func (s *Store) RecordOutcome(o *Outcome) error {
	query := `
		INSERT INTO commit_log (
			id, created_at, success, used_ai, push_failed,
			files_changed, message, commit_hash, error_kind
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var message interface{}
	if o.Message != "" {
		message = o.Message
	}

	var commitHash interface{}
	if o.CommitHash != "" {
		commitHash = o.CommitHash
	}

	var errorKind interface{}
	if o.ErrorKind != "" {
		errorKind = string(o.ErrorKind)
	}

	_, err := s.db.Exec(query,
		o.ID,
		o.Timestamp.UTC().Format(time.RFC3339),
		o.Success,
		o.UsedAI,
		o.PushFailed,
		o.FilesChanged,
		message,
		commitHash,
		errorKind,
	)
	if err != nil {
		return errors.Wrap(err, "failed to record commit outcome")
	}

	return nil
}

// LastOutcome returns the most recent outcome, or nil when the log is empty
func (s *Store) LastOutcome() (*Outcome, error) {
	row := s.db.QueryRow(`
		SELECT id, created_at, success, used_ai, push_failed,
		       files_changed, message, commit_hash, error_kind
		FROM commit_log
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`)

	o, err := scanOutcome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

// RecentOutcomes returns up to limit outcomes, newest first
func (s *Store) RecentOutcomes(limit int) ([]*Outcome, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := s.db.Query(`
		SELECT id, created_at, success, used_ai, push_failed,
		       files_changed, message, commit_hash, error_kind
		FROM commit_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query commit log")
	}
	defer rows.Close()

	var outcomes []*Outcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate commit log")
	}

	return outcomes, nil
}

// Count returns the total number of recorded attempts
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM commit_log`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count commit log")
	}
	return n, nil
}

// Stats computes aggregate statistics over the full commit log
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{ByErrorKind: map[string]int{}}

	var aiCommits int
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(success), 0),
		       COALESCE(SUM(CASE WHEN success AND used_ai THEN 1 ELSE 0 END), 0)
		FROM commit_log
	`).Scan(&stats.TotalAttempts, &stats.TotalCommits, &aiCommits)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate commit log")
	}

	if stats.TotalAttempts > 0 {
		stats.SuccessRate = float64(stats.TotalCommits) / float64(stats.TotalAttempts)
	}
	if stats.TotalCommits > 0 {
		stats.AIUsageRate = float64(aiCommits) / float64(stats.TotalCommits)
	}

	// created_at is stored RFC3339 in UTC, so string comparison is
	// chronological
	cutoff := time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
	err = s.db.QueryRow(`
		SELECT COUNT(*) FROM commit_log WHERE success AND created_at >= ?
	`, cutoff).Scan(&stats.CommitsLast24h)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count recent commits")
	}

	kindRows, err := s.db.Query(`
		SELECT error_kind, COUNT(*)
		FROM commit_log
		WHERE error_kind IS NOT NULL
		GROUP BY error_kind
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate error kinds")
	}
	defer kindRows.Close()

	for kindRows.Next() {
		var kind string
		var count int
		if err := kindRows.Scan(&kind, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan error kind row")
		}
		stats.ByErrorKind[kind] = count
	}
	if err := kindRows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate error kinds")
	}

	dayRows, err := s.db.Query(`
		SELECT substr(created_at, 1, 10) AS day, COUNT(*)
		FROM commit_log
		WHERE success
		GROUP BY day
		ORDER BY day DESC
		LIMIT 14
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate daily commits")
	}
	defer dayRows.Close()

	for dayRows.Next() {
		var dc DayCount
		if err := dayRows.Scan(&dc.Day, &dc.Commits); err != nil {
			return nil, errors.Wrap(err, "failed to scan daily row")
		}
		stats.Daily = append(stats.Daily, dc)
	}
	if err := dayRows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate daily commits")
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOutcome(row rowScanner) (*Outcome, error) {
	var o Outcome
	var createdAt string
	var message, commitHash, errorKind sql.NullString

	err := row.Scan(
		&o.ID,
		&createdAt,
		&o.Success,
		&o.UsedAI,
		&o.PushFailed,
		&o.FilesChanged,
		&message,
		&commitHash,
		&errorKind,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan commit log row")
	}

	o.Timestamp, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid created_at %q in commit log", createdAt)
	}

	o.Message = message.String
	o.CommitHash = commitHash.String
	o.ErrorKind = ErrorKind(errorKind.String)

	return &o, nil
}
