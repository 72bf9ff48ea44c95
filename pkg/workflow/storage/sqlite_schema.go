package storage

// SchemaVersion is the current case database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the case database schema.
const Schema = `
CREATE TABLE IF NOT EXISTS cases (
    case_number TEXT PRIMARY KEY,
    vendor_id TEXT NOT NULL,
    case_type TEXT NOT NULL,
    status TEXT NOT NULL,
    severity TEXT NOT NULL,
    priority TEXT NOT NULL,
    sla_deadline TIMESTAMP NOT NULL,
    version INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,

    -- Full case document as JSON; the scalar columns above exist for
    -- indexing and sweep queries only.
    document TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cases_vendor ON cases(vendor_id);
CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status);
CREATE INDEX IF NOT EXISTS idx_cases_deadline ON cases(sla_deadline);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
