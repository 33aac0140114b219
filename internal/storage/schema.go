package storage

const schema = `
-- The 'words' table stores the vocabulary and each word's review state.
-- Dates are ISO strings (YYYY-MM-DD) so text comparison orders them by day.
CREATE TABLE IF NOT EXISTS words (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    word TEXT NOT NULL UNIQUE,
    translation TEXT NOT NULL,
    example TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '',
    next_review_date TEXT NOT NULL,
    history TEXT NOT NULL DEFAULT '[]' -- JSON array of {"correct", "asked_at"}
);

CREATE INDEX IF NOT EXISTS idx_words_next_review_date ON words(next_review_date, id);

-- The 'sources' table tracks word lists to import: a local directory, a git repository or a workbook.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME
);

-- The 'imports' table links words created by a sync to their source entry.
CREATE TABLE IF NOT EXISTS imports (
    word_id INTEGER NOT NULL UNIQUE,
    source_id INTEGER NOT NULL,
    fingerprint TEXT NOT NULL,

    FOREIGN KEY(word_id) REFERENCES words(id),
    FOREIGN KEY(source_id) REFERENCES sources(id)
);
`
