package sqlite

// Schema version for migration management
const SchemaVersion = 1

// SQL statements for database schema creation

// CategoriesTableSQL creates the categories table, keyed by entity id
const CategoriesTableSQL = `
CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);
`

// HabitsTableSQL creates the habits table. category_id is a soft reference:
// no foreign key, the application keeps it consistent.
const HabitsTableSQL = `
CREATE TABLE IF NOT EXISTS habits (
    id TEXT PRIMARY KEY,
    category_id TEXT NOT NULL,
    name TEXT NOT NULL,
    reminder_time TEXT
);
`

// HabitLogsTableSQL creates the habit_logs table. habit_id is a soft
// reference and may dangle after a cascade races with logging.
const HabitLogsTableSQL = `
CREATE TABLE IF NOT EXISTS habit_logs (
    id TEXT PRIMARY KEY,
    habit_id TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    note TEXT,
    is_makeup INTEGER DEFAULT 0,
    original_date INTEGER
);
`

// SchemaVersionTableSQL creates the schema version table for migration tracking
const SchemaVersionTableSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// HabitsIndexesSQL creates indexes on habits for common queries
const HabitsIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_habits_category_id ON habits(category_id);
`

// HabitLogsIndexesSQL creates indexes on habit_logs for common queries
const HabitLogsIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_habit_logs_habit_id ON habit_logs(habit_id);
CREATE INDEX IF NOT EXISTS idx_habit_logs_timestamp ON habit_logs(timestamp);
`

// AllTableSchemas returns all table creation statements in order
func AllTableSchemas() []string {
	return []string{
		SchemaVersionTableSQL,
		CategoriesTableSQL,
		HabitsTableSQL,
		HabitLogsTableSQL,
	}
}

// AllIndexes returns all index creation statements
func AllIndexes() []string {
	return []string{
		HabitsIndexesSQL,
		HabitLogsIndexesSQL,
	}
}

// PragmaStatements returns pragma statements to execute on database connection
func PragmaStatements() []string {
	return []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous = NORMAL", // Balance between safety and performance
	}
}
