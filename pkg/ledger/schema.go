// Package ledger provides the SQLite-backed double-entry ledger store the
// import pipeline posts into.
package ledger

// schema defines the SQL statements to create the ledger tables.
const schema = `
-- Account chart. Accounts are looked up by full name.
CREATE TABLE IF NOT EXISTS accounts (
    guid   TEXT PRIMARY KEY,
    name   TEXT NOT NULL UNIQUE,
    type   TEXT NOT NULL,
    parent TEXT NOT NULL DEFAULT ''
);

-- Customers and vendors, keyed by (kind, id). Company name is the primary
-- identity key during import; id is a secondary, possibly-updating key.
CREATE TABLE IF NOT EXISTS parties (
    kind         TEXT NOT NULL,
    id           TEXT NOT NULL,
    company      TEXT NOT NULL,
    name         TEXT NOT NULL DEFAULT '',
    addr1        TEXT NOT NULL DEFAULT '',
    addr2        TEXT NOT NULL DEFAULT '',
    addr3        TEXT NOT NULL DEFAULT '',
    addr4        TEXT NOT NULL DEFAULT '',
    phone        TEXT NOT NULL DEFAULT '',
    fax          TEXT NOT NULL DEFAULT '',
    email        TEXT NOT NULL DEFAULT '',
    notes        TEXT NOT NULL DEFAULT '',
    ship_name    TEXT NOT NULL DEFAULT '',
    ship_addr1   TEXT NOT NULL DEFAULT '',
    ship_addr2   TEXT NOT NULL DEFAULT '',
    ship_addr3   TEXT NOT NULL DEFAULT '',
    ship_addr4   TEXT NOT NULL DEFAULT '',
    ship_phone   TEXT NOT NULL DEFAULT '',
    tax_table    TEXT NOT NULL DEFAULT '',
    tax_override INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (kind, id)
);

CREATE INDEX IF NOT EXISTS idx_parties_company ON parties(kind, company);

-- Named tax rates. Rates are exact fractions.
CREATE TABLE IF NOT EXISTS tax_tables (
    name       TEXT PRIMARY KEY,
    rate_num   INTEGER NOT NULL,
    rate_denom INTEGER NOT NULL
);

-- Journal transactions and their splits. Split values of one transaction
-- sum to zero (double-entry law); the engine enforces this before insert.
CREATE TABLE IF NOT EXISTS transactions (
    guid        TEXT PRIMARY KEY,
    date        TEXT NOT NULL,              -- YYYY-MM-DD
    num         TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    notes       TEXT NOT NULL DEFAULT '',
    currency    TEXT NOT NULL DEFAULT 'USD'
);

CREATE TABLE IF NOT EXISTS splits (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    txn_guid    TEXT NOT NULL REFERENCES transactions(guid),
    account     TEXT NOT NULL,
    value_num   INTEGER NOT NULL,
    value_denom INTEGER NOT NULL,
    memo        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_splits_txn ON splits(txn_guid);

-- Invoices and bills, with their line items.
CREATE TABLE IF NOT EXISTS documents (
    guid         TEXT PRIMARY KEY,
    kind         TEXT NOT NULL,             -- 'invoice' or 'bill'
    id           TEXT NOT NULL,             -- sequential per kind
    owner_kind   TEXT NOT NULL,
    owner_id     TEXT NOT NULL,
    credit_note  INTEGER NOT NULL DEFAULT 0,
    tax_table    TEXT NOT NULL DEFAULT '',
    date_opened  TEXT NOT NULL,
    billing_id   TEXT NOT NULL DEFAULT '',
    notes        TEXT NOT NULL DEFAULT '',
    post_account TEXT NOT NULL,
    post_date    TEXT NOT NULL,
    UNIQUE(kind, id)
);

CREATE TABLE IF NOT EXISTS document_lines (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    document_guid TEXT NOT NULL REFERENCES documents(guid),
    account       TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    qty_num       INTEGER NOT NULL,
    qty_denom     INTEGER NOT NULL,
    price_num     INTEGER NOT NULL DEFAULT 0,
    price_denom   INTEGER NOT NULL DEFAULT 1,
    date          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_document_lines_doc ON document_lines(document_guid);

-- Payments applied from a transfer account to a posted account.
CREATE TABLE IF NOT EXISTS payments (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    owner_kind       TEXT NOT NULL,
    owner_id         TEXT NOT NULL,
    posted_account   TEXT NOT NULL,
    transfer_account TEXT NOT NULL,
    amount_num       INTEGER NOT NULL,
    amount_denom     INTEGER NOT NULL,
    date             TEXT NOT NULL,
    notes            TEXT NOT NULL DEFAULT '',
    num              TEXT NOT NULL DEFAULT ''
);

-- Sequential id allocation per entity kind.
CREATE TABLE IF NOT EXISTS counters (
    kind TEXT PRIMARY KEY,
    next INTEGER NOT NULL
);
`
