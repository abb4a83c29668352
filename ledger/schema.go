package ledger

// AuditLogSchema is the DDL for the append-only audit table. Adapted from
// the teacher's ClickHouse schema.go, rewritten in plain Postgres since
// this module's store is Postgres end to end — there is no separate
// analytics warehouse to partition for.
const AuditLogSchema = `
CREATE TABLE IF NOT EXISTS ledger_audit_log (
    transaction_id  TEXT PRIMARY KEY,
    from_wallet     TEXT NOT NULL,
    to_wallet       TEXT NOT NULL,
    amount          BIGINT NOT NULL,
    currency        TEXT NOT NULL,
    type            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS ledger_audit_log_from_wallet_idx ON ledger_audit_log (from_wallet, created_at);
CREATE INDEX IF NOT EXISTS ledger_audit_log_to_wallet_idx ON ledger_audit_log (to_wallet, created_at);
`
