package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ActivateKillSwitch opens a new activation row. The partial unique index on
// active rows makes a second concurrent activation fail; callers treat that
// as "already active" and re-read.
func (s *Store) ActivateKillSwitch(trigger KillSwitchTrigger, rule, reason string, pauseUntil *time.Time, now time.Time) (*KillSwitchRecord, error) {
	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO kill_switch (active, reason, triggered_by, trigger_rule, pause_until, activated_at)
			VALUES (1, ?, ?, ?, ?, ?)`,
			reason, trigger, rule, nullTime(pauseUntil), now)
		if err != nil {
			return fmt.Errorf("activate kill switch: %w", err)
		}
		id, _ = res.LastInsertId()
		if _, err := tx.Exec(`
			INSERT INTO system_state (key, value, updated_at) VALUES (?, 'true', ?)
			ON CONFLICT(key) DO UPDATE SET value = 'true', updated_at = excluded.updated_at`,
			StateKillSwitchActive, now); err != nil {
			return fmt.Errorf("flag kill switch state: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.getKillSwitch(id)
}

// DeactivateKillSwitch clears an activation row and the state flag.
func (s *Store) DeactivateKillSwitch(id int64, now time.Time) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			UPDATE kill_switch SET active = 0, deactivated_at = ? WHERE id = ? AND active = 1`,
			now, id); err != nil {
			return fmt.Errorf("deactivate kill switch %d: %w", id, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO system_state (key, value, updated_at) VALUES (?, 'false', ?)
			ON CONFLICT(key) DO UPDATE SET value = 'false', updated_at = excluded.updated_at`,
			StateKillSwitchActive, now); err != nil {
			return fmt.Errorf("clear kill switch state: %w", err)
		}
		return nil
	})
}

// ActiveKillSwitch returns the single active row, or nil when the switch is
// off. The store never expires rows itself; the safety manager owns that.
func (s *Store) ActiveKillSwitch() (*KillSwitchRecord, error) {
	ks, err := scanKillSwitch(s.db.QueryRow(killSwitchColumns + ` WHERE active = 1 ORDER BY id DESC LIMIT 1`))
	if err == errKillSwitchNotFound {
		return nil, nil
	}
	return ks, err
}

// KillSwitchHistory returns past activations, newest first.
func (s *Store) KillSwitchHistory(limit int) ([]*KillSwitchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(killSwitchColumns+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list kill switch history: %w", err)
	}
	defer rows.Close()

	var out []*KillSwitchRecord
	for rows.Next() {
		ks, err := scanKillSwitch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ks)
	}
	return out, rows.Err()
}

func (s *Store) getKillSwitch(id int64) (*KillSwitchRecord, error) {
	return scanKillSwitch(s.db.QueryRow(killSwitchColumns+` WHERE id = ?`, id))
}

var errKillSwitchNotFound = fmt.Errorf("kill switch row not found")

const killSwitchColumns = `
	SELECT id, active, reason, triggered_by, trigger_rule, pause_until, activated_at, deactivated_at
	FROM kill_switch`

func scanKillSwitch(row rowScanner) (*KillSwitchRecord, error) {
	var ks KillSwitchRecord
	var pauseUntil, deactivatedAt sql.NullTime
	err := row.Scan(&ks.ID, &ks.Active, &ks.Reason, &ks.TriggeredBy, &ks.TriggerRule,
		&pauseUntil, &ks.ActivatedAt, &deactivatedAt)
	if err == sql.ErrNoRows {
		return nil, errKillSwitchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan kill switch: %w", err)
	}
	ks.PauseUntil = timePtr(pauseUntil)
	ks.DeactivatedAt = timePtr(deactivatedAt)
	return &ks, nil
}
