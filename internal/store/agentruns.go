package store

import (
	"database/sql"
	"fmt"
	"time"
)

// StartAgentRun opens a running agent_runs row and returns its ID.
func (s *Store) StartAgentRun(agentName, taskType string, siteID int64) (int64, error) {
	var site any
	if siteID != 0 {
		site = siteID
	}
	res, err := s.db.Exec(`
		INSERT INTO agent_runs (agent_name, task_type, site_id, status, started_at)
		VALUES (?, ?, ?, 'running', ?)`,
		agentName, taskType, site, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("start agent run %s: %w", agentName, err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// CompleteAgentRun closes a running row with its outcome.
func (s *Store) CompleteAgentRun(id int64, status AgentRunStatus, errText string) error {
	if status != RunSuccess && status != RunFailed {
		return fmt.Errorf("invalid terminal run status %q", status)
	}
	_, err := s.db.Exec(`
		UPDATE agent_runs SET status = ?, error_text = ?, completed_at = ?
		WHERE id = ? AND status = 'running'`,
		status, errText, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("complete agent run %d: %w", id, err)
	}
	return nil
}

// FailedRunCountSince counts failed agent runs started after the cutoff.
// This is the rolling-window input to the kill-switch max_errors rule.
func (s *Store) FailedRunCountSince(cutoff time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM agent_runs WHERE status = 'failed' AND started_at > ?`,
		cutoff).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count failed runs: %w", err)
	}
	return n, nil
}

// GetAgentRun fetches one run row.
func (s *Store) GetAgentRun(id int64) (*AgentRunRecord, error) {
	var r AgentRunRecord
	var siteID sql.NullInt64
	var completedAt sql.NullTime
	err := s.db.QueryRow(`
		SELECT id, agent_name, task_type, site_id, status, error_text, started_at, completed_at
		FROM agent_runs WHERE id = ?`, id).
		Scan(&r.ID, &r.AgentName, &r.TaskType, &siteID, &r.Status, &r.ErrorText, &r.StartedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("agent run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan agent run: %w", err)
	}
	if siteID.Valid {
		r.SiteID = siteID.Int64
	}
	r.CompletedAt = timePtr(completedAt)
	return &r, nil
}
