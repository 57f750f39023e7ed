package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/johns/vibe-diary/internal/diary"
)

// SaveIncremental writes what can safely be re-sent after every event:
// the cumulative duration, accomplishments and objectives not yet stored
// (matched by exact text), and the current tool-usage counts, replacing
// any earlier count for the same tool. Issues and modified files are left
// to Finalize.
func (s *Store) SaveIncremental(id int64, sess *diary.Session) error {
	err := s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"UPDATE sessions SET total_duration_ms = ? WHERE id = ?",
			int64(sess.TotalDurationMS), id,
		); err != nil {
			return fmt.Errorf("update duration: %w", err)
		}

		stored, err := textSet(tx, "SELECT description FROM accomplishments WHERE session_id = ?", id)
		if err != nil {
			return fmt.Errorf("load stored accomplishments: %w", err)
		}
		for _, acc := range sess.Accomplishments {
			if stored[acc.Description] {
				continue
			}
			if err := insertAccomplishment(tx, id, acc); err != nil {
				return err
			}
			stored[acc.Description] = true
		}

		stored, err = textSet(tx, "SELECT objective FROM objectives WHERE session_id = ?", id)
		if err != nil {
			return fmt.Errorf("load stored objectives: %w", err)
		}
		for _, obj := range sess.Objectives {
			if stored[obj] {
				continue
			}
			if err := insertObjective(tx, id, obj); err != nil {
				return err
			}
			stored[obj] = true
		}

		for _, name := range sess.ToolNames() {
			if _, err := tx.Exec(
				"DELETE FROM tool_usage WHERE session_id = ? AND tool_name = ?",
				id, name,
			); err != nil {
				return fmt.Errorf("replace tool usage %s: %w", name, err)
			}
			if err := insertToolUsage(tx, id, name, sess.ToolUsage[name]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("incremental save of session %d: %w", id, err)
	}
	return nil
}

// Finalize is the terminal write for a session. It records the end time
// and inserts every accomplishment, objective, issue, tool count and
// modified file without checking what is already stored. Calling it twice
// for the same session duplicates those rows.
func (s *Store) Finalize(id int64, sess *diary.Session) error {
	var end any
	if sess.EndTime != nil {
		end = sess.EndTime.Format(time.RFC3339)
	}

	err := s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"UPDATE sessions SET end_time = ?, total_duration_ms = ? WHERE id = ?",
			end, int64(sess.TotalDurationMS), id,
		); err != nil {
			return fmt.Errorf("update session: %w", err)
		}

		for _, acc := range sess.Accomplishments {
			if err := insertAccomplishment(tx, id, acc); err != nil {
				return err
			}
		}
		for _, obj := range sess.Objectives {
			if err := insertObjective(tx, id, obj); err != nil {
				return err
			}
		}
		for _, issue := range sess.Issues {
			if _, err := tx.Exec(
				"INSERT INTO issues (session_id, issue) VALUES (?, ?)",
				id, issue,
			); err != nil {
				return fmt.Errorf("insert issue: %w", err)
			}
		}
		for _, name := range sess.ToolNames() {
			if err := insertToolUsage(tx, id, name, sess.ToolUsage[name]); err != nil {
				return err
			}
		}
		for _, path := range sess.UniqueFiles() {
			if _, err := tx.Exec(
				"INSERT INTO files_modified (session_id, file_path) VALUES (?, ?)",
				id, path,
			); err != nil {
				return fmt.Errorf("insert modified file %s: %w", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("finalize session %d: %w", id, err)
	}
	return nil
}

func insertAccomplishment(tx *sql.Tx, sessionID int64, acc diary.Accomplishment) error {
	var accID int64
	err := tx.QueryRow(
		`INSERT INTO accomplishments (session_id, category, description, duration_ms)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		sessionID, string(acc.Category), acc.Description, nullableMS(acc.Duration),
	).Scan(&accID)
	if err != nil {
		return fmt.Errorf("insert accomplishment %q: %w", acc.Description, err)
	}

	for _, path := range acc.Files {
		if _, err := tx.Exec(
			"INSERT INTO accomplishment_files (accomplishment_id, file_path) VALUES (?, ?)",
			accID, path,
		); err != nil {
			return fmt.Errorf("insert accomplishment file %s: %w", path, err)
		}
	}
	return nil
}

func insertObjective(tx *sql.Tx, sessionID int64, objective string) error {
	if _, err := tx.Exec(
		"INSERT INTO objectives (session_id, objective) VALUES (?, ?)",
		sessionID, objective,
	); err != nil {
		return fmt.Errorf("insert objective: %w", err)
	}
	return nil
}

func insertToolUsage(tx *sql.Tx, sessionID int64, name string, count int) error {
	if _, err := tx.Exec(
		"INSERT INTO tool_usage (session_id, tool_name, usage_count) VALUES (?, ?, ?)",
		sessionID, name, count,
	); err != nil {
		return fmt.Errorf("insert tool usage %s: %w", name, err)
	}
	return nil
}

// textSet returns the distinct values of a single-column query.
func textSet(tx *sql.Tx, query string, args ...any) (map[string]bool, error) {
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		set[v] = true
	}
	return set, rows.Err()
}
