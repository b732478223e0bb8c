package database

// node tree with the content objects referenced by the nodes.
var schemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
    id           VARCHAR(64)  PRIMARY KEY,
    path         VARCHAR(255) NOT NULL,
    depth        INTEGER      NOT NULL,
    numchild     INTEGER      NOT NULL DEFAULT 0,
    frozen       INTEGER      NOT NULL DEFAULT 0,
    content_type VARCHAR(128) NOT NULL,
    content_id   VARCHAR(64)  NOT NULL,
    source_id    VARCHAR(64)
)`,
	`CREATE UNIQUE INDEX idx_nodes_path ON nodes(path)`,
	`CREATE INDEX idx_nodes_content ON nodes(content_type, content_id)`,

	`CREATE TABLE IF NOT EXISTS contents (
    id      VARCHAR(64)  PRIMARY KEY,
    type    VARCHAR(128) NOT NULL,
    data    TEXT         NOT NULL,
    hash    VARCHAR(32)  NOT NULL,
    node_id VARCHAR(64)  NOT NULL,
    FOREIGN KEY (node_id) REFERENCES nodes(id) ON DELETE CASCADE
)`,
	`CREATE UNIQUE INDEX idx_contents_node ON contents(node_id)`,
}
