package clickhouse

// SchemaStatements returns idempotent DDL for the sentiment tables.
func SchemaStatements(database string) []string {
	if database == "" {
		database = "sentipulse"
	}
	return []string{
		`CREATE DATABASE IF NOT EXISTS ` + database,
		`CREATE TABLE IF NOT EXISTS ` + database + `.sentiment_records (
			id String,
			source LowCardinality(String),
			text_fingerprint String,
			positive Float64,
			negative Float64,
			neutral Float64,
			dominant LowCardinality(String),
			confidence Float64,
			created_at DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(created_at)
		ORDER BY (source, created_at, id)`,
		`CREATE TABLE IF NOT EXISTS ` + database + `.sentiment_predictions (
			batch_id String,
			generated_at DateTime64(3, 'UTC'),
			date Date,
			predicted Float64,
			lower Float64,
			upper Float64,
			confidence Float64,
			model_source LowCardinality(String)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(generated_at)
		ORDER BY (generated_at, date)`,
	}
}
