package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/johns/vibe-diary/internal/diary"
)

// Recent returns up to limit sessions, most recently started first.
func (s *Store) Recent(limit int) ([]*diary.Session, error) {
	rows, err := s.db.Query(
		"SELECT id FROM sessions ORDER BY start_time DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}

	sessions := make([]*diary.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Load(id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Load reconstructs one session. Accomplishments and objectives whose text
// repeats within the session are collapsed to their first row, since a
// normal run stores them once incrementally and once more on finalization.
// Tool usage is the highest count stored per tool.
func (s *Store) Load(id int64) (*diary.Session, error) {
	var (
		start    string
		end      sql.NullString
		duration int64
	)
	err := s.db.QueryRow(
		"SELECT start_time, end_time, total_duration_ms FROM sessions WHERE id = ?", id,
	).Scan(&start, &end, &duration)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", id, err)
	}

	sess := diary.New(time.Time{})
	sess.ID = id
	sess.TotalDurationMS = uint64(duration)
	if sess.StartTime, err = time.Parse(time.RFC3339, start); err != nil {
		return nil, fmt.Errorf("parse start time of session %d: %w", id, err)
	}
	if end.Valid {
		t, err := time.Parse(time.RFC3339, end.String)
		if err != nil {
			return nil, fmt.Errorf("parse end time of session %d: %w", id, err)
		}
		sess.EndTime = &t
	}

	if sess.Accomplishments, err = s.loadAccomplishments(id); err != nil {
		return nil, err
	}
	if sess.Objectives, err = s.loadStrings(
		"SELECT objective FROM objectives WHERE session_id = ? ORDER BY id", id, true,
	); err != nil {
		return nil, fmt.Errorf("load objectives of session %d: %w", id, err)
	}
	if sess.Issues, err = s.loadStrings(
		"SELECT issue FROM issues WHERE session_id = ? ORDER BY id", id, false,
	); err != nil {
		return nil, fmt.Errorf("load issues of session %d: %w", id, err)
	}
	if sess.FilesModified, err = s.loadStrings(
		"SELECT DISTINCT file_path FROM files_modified WHERE session_id = ? ORDER BY file_path", id, false,
	); err != nil {
		return nil, fmt.Errorf("load modified files of session %d: %w", id, err)
	}
	if err := s.loadToolUsage(id, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

func (s *Store) loadAccomplishments(id int64) ([]diary.Accomplishment, error) {
	files := make(map[int64][]string)
	frows, err := s.db.Query(
		`SELECT f.accomplishment_id, f.file_path
		 FROM accomplishment_files f
		 JOIN accomplishments a ON a.id = f.accomplishment_id
		 WHERE a.session_id = ? ORDER BY f.id`, id)
	if err != nil {
		return nil, fmt.Errorf("load accomplishment files of session %d: %w", id, err)
	}
	for frows.Next() {
		var accID int64
		var path string
		if err := frows.Scan(&accID, &path); err != nil {
			frows.Close()
			return nil, fmt.Errorf("scan accomplishment file: %w", err)
		}
		files[accID] = append(files[accID], path)
	}
	err = frows.Err()
	frows.Close()
	if err != nil {
		return nil, fmt.Errorf("load accomplishment files of session %d: %w", id, err)
	}

	rows, err := s.db.Query(
		`SELECT id, category, description, duration_ms
		 FROM accomplishments WHERE session_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("load accomplishments of session %d: %w", id, err)
	}
	defer rows.Close()

	var out []diary.Accomplishment
	seen := make(map[string]bool)
	for rows.Next() {
		var (
			accID    int64
			category string
			desc     string
			ms       sql.NullInt64
		)
		if err := rows.Scan(&accID, &category, &desc, &ms); err != nil {
			return nil, fmt.Errorf("scan accomplishment: %w", err)
		}
		if seen[desc] {
			continue
		}
		seen[desc] = true

		acc := diary.Accomplishment{
			Category:    diary.Category(category),
			Description: desc,
			Files:       files[accID],
		}
		if ms.Valid {
			d := uint64(ms.Int64)
			acc.Duration = &d
		}
		out = append(out, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load accomplishments of session %d: %w", id, err)
	}
	return out, nil
}

func (s *Store) loadStrings(query string, id int64, dedupe bool) ([]string, error) {
	rows, err := s.db.Query(query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	seen := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if dedupe {
			if seen[v] {
				continue
			}
			seen[v] = true
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) loadToolUsage(id int64, sess *diary.Session) error {
	rows, err := s.db.Query(
		"SELECT tool_name, MAX(usage_count) FROM tool_usage WHERE session_id = ? GROUP BY tool_name",
		id,
	)
	if err != nil {
		return fmt.Errorf("load tool usage of session %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return fmt.Errorf("scan tool usage: %w", err)
		}
		sess.ToolUsage[name] = count
	}
	return rows.Err()
}

// RowCounts is the raw number of stored rows for one session.
type RowCounts struct {
	Accomplishments     int
	AccomplishmentFiles int
	Objectives          int
	Issues              int
	ToolUsage           int
	FilesModified       int
}

// Counts returns raw row counts for a session, without any collapsing.
func (s *Store) Counts(id int64) (RowCounts, error) {
	var c RowCounts
	err := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM accomplishments WHERE session_id = ?1),
			(SELECT COUNT(*) FROM accomplishment_files f
			   JOIN accomplishments a ON a.id = f.accomplishment_id
			   WHERE a.session_id = ?1),
			(SELECT COUNT(*) FROM objectives WHERE session_id = ?1),
			(SELECT COUNT(*) FROM issues WHERE session_id = ?1),
			(SELECT COUNT(*) FROM tool_usage WHERE session_id = ?1),
			(SELECT COUNT(*) FROM files_modified WHERE session_id = ?1)`,
		id,
	).Scan(&c.Accomplishments, &c.AccomplishmentFiles, &c.Objectives, &c.Issues, &c.ToolUsage, &c.FilesModified)
	if err != nil {
		return RowCounts{}, fmt.Errorf("count rows of session %d: %w", id, err)
	}
	return c, nil
}
