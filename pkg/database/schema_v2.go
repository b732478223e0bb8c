package database

// version trackers, commit chain and review state.
var schemaV2 = []string{
	`CREATE TABLE IF NOT EXISTS trackers (
    id           VARCHAR(64) PRIMARY KEY,
    working_copy VARCHAR(64) NOT NULL,
    head         VARCHAR(64),
    reviewed     INTEGER     NOT NULL DEFAULT 0,
    generation   INTEGER     NOT NULL DEFAULT 0,
    created      VARCHAR(32) NOT NULL,
    FOREIGN KEY (working_copy) REFERENCES nodes(id)
)`,

	`CREATE TABLE IF NOT EXISTS commits (
    id         VARCHAR(64)  PRIMARY KEY,
    tracker_id VARCHAR(64)  NOT NULL,
    root       VARCHAR(64)  NOT NULL,
    parent_id  VARCHAR(64),
    author     VARCHAR(255) NOT NULL,
    message    TEXT         NOT NULL,
    created_at VARCHAR(32)  NOT NULL,
    publish_at VARCHAR(32)  NOT NULL,
    hash       VARCHAR(64)  NOT NULL,
    FOREIGN KEY (tracker_id) REFERENCES trackers(id),
    FOREIGN KEY (root)       REFERENCES nodes(id),
    FOREIGN KEY (parent_id)  REFERENCES commits(id)
)`,
	`CREATE INDEX idx_commits_tracker ON commits(tracker_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS reviewed_commits (
    commit_id   VARCHAR(64)  PRIMARY KEY,
    approved_at VARCHAR(32),
    approved_by VARCHAR(255),
    FOREIGN KEY (commit_id) REFERENCES commits(id) ON DELETE CASCADE
)`,
	`CREATE INDEX idx_reviewed_pending ON reviewed_commits(approved_at)`,
}
