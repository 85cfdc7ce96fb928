package journal

const schemaSQL = `
CREATE TABLE IF NOT EXISTS fetches (
    id            TEXT PRIMARY KEY,
    at            TEXT NOT NULL,
    method        TEXT NOT NULL,
    endpoint      TEXT NOT NULL,
    query         TEXT,
    status        INTEGER,
    duration_ms   INTEGER NOT NULL,
    error_kind    TEXT,
    error         TEXT
);

CREATE INDEX IF NOT EXISTS idx_fetches_at ON fetches(at);
CREATE INDEX IF NOT EXISTS idx_fetches_endpoint ON fetches(endpoint);
`
