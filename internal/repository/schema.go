package repository

// Schema is the DDL for the tables this package manages. The seed tool
// applies it with --init-schema; integration tests apply it to throwaway
// containers.
const Schema = `
CREATE TABLE IF NOT EXISTS workouts (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS exercises (
	id UUID PRIMARY KEY,
	workout_id UUID NOT NULL REFERENCES workouts(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	target_areas TEXT[] NOT NULL DEFAULT '{}',
	sets INT NOT NULL DEFAULT 0,
	reps INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS compliance_records (
	id UUID PRIMARY KEY,
	ingredient TEXT NOT NULL,
	status TEXT NOT NULL,
	authority TEXT NOT NULL,
	authority_status TEXT,
	source_url TEXT,
	last_verified_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	notes TEXT,
	UNIQUE (ingredient, authority)
);

CREATE TABLE IF NOT EXISTS recommendations (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	workout_id UUID,
	content TEXT NOT NULL,
	reasoning TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS citations (
	id UUID PRIMARY KEY,
	recommendation_id UUID NOT NULL REFERENCES recommendations(id) ON DELETE CASCADE,
	ingredient TEXT NOT NULL,
	compliance_record_id UUID REFERENCES compliance_records(id),
	text TEXT NOT NULL,
	source_url TEXT,
	needs_manual_review BOOLEAN NOT NULL DEFAULT false
);

CREATE INDEX IF NOT EXISTS idx_compliance_ingredient
	ON compliance_records (lower(ingredient), authority);
CREATE INDEX IF NOT EXISTS idx_recommendations_user
	ON recommendations (user_id, created_at DESC);
`
