package store

import (
	"time"
)

// SiteRecord is one managed web property.
type SiteRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	RootPath  string    `json:"root_path"`
	Niche     string    `json:"niche"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KeywordStatus enumerates the keyword pipeline milestones.
type KeywordStatus string

const (
	KeywordNew            KeywordStatus = "new"
	KeywordInProgress     KeywordStatus = "in_progress"
	KeywordBriefCreated   KeywordStatus = "brief_created"
	KeywordContentCreated KeywordStatus = "content_created"
	KeywordPublished      KeywordStatus = "published"
	KeywordAbandoned      KeywordStatus = "abandoned"
)

// KeywordRecord is a target keyword tracked for one site.
// Priority runs 1 (high) to 5 (low).
type KeywordRecord struct {
	ID              int64         `json:"id"`
	SiteID          int64         `json:"site_id"`
	Keyword         string        `json:"keyword"`
	SearchVolume    int           `json:"search_volume"`
	Difficulty      int           `json:"difficulty"`
	Priority        int           `json:"priority"`
	Status          KeywordStatus `json:"status"`
	CurrentPosition int           `json:"current_position"`
	BestPosition    int           `json:"best_position"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// BriefStatus enumerates brief lifecycle states.
type BriefStatus string

const (
	BriefDraft     BriefStatus = "draft"
	BriefValidated BriefStatus = "validated"
	BriefInWriting BriefStatus = "in_writing"
	BriefComplete  BriefStatus = "complete"
	BriefRejected  BriefStatus = "rejected"
)

// BriefRecord is a content brief derived from a keyword.
type BriefRecord struct {
	ID        int64       `json:"id"`
	SiteID    int64       `json:"site_id"`
	KeywordID int64       `json:"keyword_id"`
	Title     string      `json:"title"`
	Outline   string      `json:"outline"`
	Status    BriefStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// DraftStatus enumerates content draft lifecycle states.
type DraftStatus string

const (
	DraftStatusDraft     DraftStatus = "draft"
	DraftStatusReview    DraftStatus = "review"
	DraftStatusApproved  DraftStatus = "approved"
	DraftStatusPublished DraftStatus = "published"
	DraftStatusRejected  DraftStatus = "rejected"
	DraftStatusArchived  DraftStatus = "archived"
)

// DraftRecord is a content item moving through human validation.
type DraftRecord struct {
	ID              int64       `json:"id"`
	DraftUID        string      `json:"draft_uid"`
	BriefID         int64       `json:"brief_id"`
	SiteID          int64       `json:"site_id"`
	Title           string      `json:"title"`
	Slug            string      `json:"slug"`
	Body            string      `json:"body"`
	SimilarityScore float64     `json:"similarity_score"`
	Status          DraftStatus `json:"status"`
	HumanValidated  bool        `json:"human_validated"`
	ValidatedBy     string      `json:"validated_by,omitempty"`
	ValidatedAt     *time.Time  `json:"validated_at,omitempty"`
	ApprovedAt      *time.Time  `json:"approved_at,omitempty"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	PublishAttempts int         `json:"publish_attempts"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// PublicationStatus enumerates publication outcomes.
type PublicationStatus string

const (
	PublicationPending   PublicationStatus = "pending"
	PublicationPublished PublicationStatus = "published"
	PublicationFailed    PublicationStatus = "failed"
	PublicationRetracted PublicationStatus = "retracted"
)

// PublicationRecord is one publish attempt outcome for a draft.
type PublicationRecord struct {
	ID             int64             `json:"id"`
	PublicationUID string            `json:"publication_uid"`
	DraftID        int64             `json:"draft_id"`
	SiteID         int64             `json:"site_id"`
	URL            string            `json:"url"`
	Status         PublicationStatus `json:"status"`
	ErrorText      string            `json:"error_text,omitempty"`
	PublishedAt    *time.Time        `json:"published_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// SimilarityRecord links a draft to one prior publication it was compared
// against. Rows are insert-only; scores never change once written.
type SimilarityRecord struct {
	ID            int64     `json:"id"`
	DraftID       int64     `json:"draft_id"`
	PublicationID int64     `json:"publication_id"`
	Score         float64   `json:"score"`
	CreatedAt     time.Time `json:"created_at"`
}

// KillSwitchTrigger identifies what activated the kill switch.
type KillSwitchTrigger string

const (
	TriggerManual KillSwitchTrigger = "manual"
	TriggerAuto   KillSwitchTrigger = "auto"
)

// Automatic kill-switch rule names recorded in trigger_rule.
const (
	RuleMaxPublications = "max_publications"
	RuleSimilarity      = "similarity"
	RuleMaxErrors       = "max_errors"
)

// KillSwitchRecord is one activation of the global publication pause.
// At most one row may be active at a time.
type KillSwitchRecord struct {
	ID            int64             `json:"id"`
	Active        bool              `json:"active"`
	Reason        string            `json:"reason"`
	TriggeredBy   KillSwitchTrigger `json:"triggered_by"`
	TriggerRule   string            `json:"trigger_rule,omitempty"`
	PauseUntil    *time.Time        `json:"pause_until,omitempty"`
	ActivatedAt   time.Time         `json:"activated_at"`
	DeactivatedAt *time.Time        `json:"deactivated_at,omitempty"`
}

// AlertType enumerates alert categories.
type AlertType string

const (
	AlertUptime     AlertType = "uptime"
	AlertSSL        AlertType = "ssl"
	AlertErrorRate  AlertType = "error_rate"
	AlertKillSwitch AlertType = "killswitch"
	AlertSimilarity AlertType = "similarity"
)

// AlertSeverity enumerates alert severities.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// AlertRecord is one append-only audit/alert entry.
type AlertRecord struct {
	ID         int64         `json:"id"`
	SiteID     int64         `json:"site_id,omitempty"`
	Type       AlertType     `json:"type"`
	Severity   AlertSeverity `json:"severity"`
	Message    string        `json:"message"`
	Resolved   bool          `json:"resolved"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// AgentRunStatus enumerates automation agent run outcomes.
type AgentRunStatus string

const (
	RunRunning AgentRunStatus = "running"
	RunSuccess AgentRunStatus = "success"
	RunFailed  AgentRunStatus = "failed"
)

// AgentRunRecord tracks one execution of an automation agent. Failed runs
// inside the rolling window feed the kill-switch max_errors rule.
type AgentRunRecord struct {
	ID          int64          `json:"id"`
	AgentName   string         `json:"agent_name"`
	TaskType    string         `json:"task_type"`
	SiteID      int64          `json:"site_id,omitempty"`
	Status      AgentRunStatus `json:"status"`
	ErrorText   string         `json:"error_text,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// System-state keys read by the decision points.
const (
	StateKillSwitchActive    = "kill_switch_active"
	StateMaxPublicationsDay  = "max_publications_per_day"
	StateSimilarityThreshold = "max_similarity_threshold"
	StateMaxErrors           = "max_errors_before_pause"
	StatePauseDurationHours  = "pause_duration_hours"
)

const Schema = `
CREATE TABLE IF NOT EXISTS sites (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	domain TEXT UNIQUE NOT NULL,
	root_path TEXT NOT NULL DEFAULT '/var/www/html',
	niche TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS keywords (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id INTEGER NOT NULL REFERENCES sites(id),
	keyword TEXT NOT NULL,
	search_volume INTEGER NOT NULL DEFAULT 0,
	difficulty INTEGER NOT NULL DEFAULT 0,
	priority INTEGER NOT NULL DEFAULT 3 CHECK(priority BETWEEN 1 AND 5),
	status TEXT NOT NULL DEFAULT 'new'
		CHECK(status IN ('new','in_progress','brief_created','content_created','published','abandoned')),
	current_position INTEGER NOT NULL DEFAULT 0,
	best_position INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE(site_id, keyword)
);
CREATE INDEX IF NOT EXISTS idx_keywords_site_status ON keywords(site_id, status);

CREATE TABLE IF NOT EXISTS briefs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id INTEGER NOT NULL REFERENCES sites(id),
	keyword_id INTEGER NOT NULL REFERENCES keywords(id),
	title TEXT NOT NULL,
	outline TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'draft'
		CHECK(status IN ('draft','validated','in_writing','complete','rejected')),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_briefs_site_status ON briefs(site_id, status);

CREATE TABLE IF NOT EXISTS drafts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	draft_uid TEXT UNIQUE NOT NULL,
	brief_id INTEGER NOT NULL REFERENCES briefs(id),
	site_id INTEGER NOT NULL REFERENCES sites(id),
	title TEXT NOT NULL,
	slug TEXT NOT NULL,
	body TEXT NOT NULL,
	similarity_score REAL NOT NULL DEFAULT 0 CHECK(similarity_score BETWEEN 0 AND 1),
	status TEXT NOT NULL DEFAULT 'draft'
		CHECK(status IN ('draft','review','approved','published','rejected','archived')),
	human_validated BOOLEAN NOT NULL DEFAULT 0,
	validated_by TEXT NOT NULL DEFAULT '',
	validated_at DATETIME,
	approved_at DATETIME,
	rejection_reason TEXT NOT NULL DEFAULT '',
	publish_attempts INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_drafts_site_status ON drafts(site_id, status);
CREATE INDEX IF NOT EXISTS idx_drafts_status ON drafts(status);

CREATE TABLE IF NOT EXISTS publications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	publication_uid TEXT UNIQUE NOT NULL,
	draft_id INTEGER NOT NULL REFERENCES drafts(id),
	site_id INTEGER NOT NULL REFERENCES sites(id),
	url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending'
		CHECK(status IN ('pending','published','failed','retracted')),
	error_text TEXT NOT NULL DEFAULT '',
	published_at DATETIME,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_publications_draft ON publications(draft_id);
CREATE INDEX IF NOT EXISTS idx_publications_site_published ON publications(site_id, status, published_at);

CREATE TABLE IF NOT EXISTS similarity_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	draft_id INTEGER NOT NULL REFERENCES drafts(id),
	publication_id INTEGER NOT NULL REFERENCES publications(id),
	score REAL NOT NULL CHECK(score BETWEEN 0 AND 1),
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_similarity_draft ON similarity_records(draft_id);

CREATE TABLE IF NOT EXISTS kill_switch (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	active BOOLEAN NOT NULL DEFAULT 0,
	reason TEXT NOT NULL DEFAULT '',
	triggered_by TEXT NOT NULL CHECK(triggered_by IN ('auto','manual')),
	trigger_rule TEXT NOT NULL DEFAULT '',
	pause_until DATETIME,
	activated_at DATETIME NOT NULL,
	deactivated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_kill_switch_one_active ON kill_switch(active) WHERE active = 1;

CREATE TABLE IF NOT EXISTS alerts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id INTEGER REFERENCES sites(id),
	alert_type TEXT NOT NULL
		CHECK(alert_type IN ('uptime','ssl','error_rate','killswitch','similarity')),
	severity TEXT NOT NULL DEFAULT 'info' CHECK(severity IN ('info','warning','critical')),
	message TEXT NOT NULL,
	is_resolved BOOLEAN NOT NULL DEFAULT 0,
	resolved_at DATETIME,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_resolved ON alerts(is_resolved, created_at);

CREATE TABLE IF NOT EXISTS agent_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_name TEXT NOT NULL,
	task_type TEXT NOT NULL DEFAULT '',
	site_id INTEGER,
	status TEXT NOT NULL DEFAULT 'running' CHECK(status IN ('running','success','failed')),
	error_text TEXT NOT NULL DEFAULT '',
	started_at DATETIME NOT NULL,
	completed_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_agent_runs_status_started ON agent_runs(status, started_at);

CREATE TABLE IF NOT EXISTS system_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`
