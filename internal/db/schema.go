package db

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  external_key TEXT NOT NULL UNIQUE,
  role TEXT NOT NULL DEFAULT 'participant',
  password_hash TEXT NOT NULL,
  resume_completed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS belbin_questions (
  id TEXT PRIMARY KEY,
  number INTEGER NOT NULL UNIQUE,
  title TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS belbin_options (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL REFERENCES belbin_questions(id) ON DELETE CASCADE,
  text TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS neo_questions (
  id TEXT PRIMARY KEY,
  number INTEGER NOT NULL UNIQUE,
  title TEXT NOT NULL UNIQUE,
  trait_type TEXT NOT NULL,
  likert_labels_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS neo_options (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL REFERENCES neo_questions(id) ON DELETE CASCADE,
  option_number INTEGER NOT NULL,
  option_label TEXT NOT NULL,
  option_score INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS general_exams (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL UNIQUE,
  time_budget_min INTEGER NOT NULL,
  mode TEXT NOT NULL,
  project_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS general_questions (
  id TEXT PRIMARY KEY,
  exam_id TEXT NOT NULL REFERENCES general_exams(id) ON DELETE CASCADE,
  number INTEGER NOT NULL,
  title TEXT NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  UNIQUE (exam_id, number)
);

CREATE TABLE IF NOT EXISTS general_options (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL REFERENCES general_questions(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  is_correct INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS progress_tracks (
  user_id TEXT NOT NULL,
  track TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'started',
  started_at INTEGER NOT NULL DEFAULT 0,
  finished_at INTEGER NOT NULL DEFAULT 0,
  state_json TEXT NOT NULL,
  version INTEGER NOT NULL DEFAULT 1,
  PRIMARY KEY (user_id, track)
);

CREATE TABLE IF NOT EXISTS exam_results (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  exam_type TEXT NOT NULL,
  exam_id TEXT NOT NULL DEFAULT '',
  result_ref TEXT NOT NULL,
  uploaded_at INTEGER NOT NULL,
  UNIQUE (user_id, exam_type, exam_id)
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  external_key TEXT NOT NULL UNIQUE,
  role TEXT NOT NULL DEFAULT 'participant',
  password_hash TEXT NOT NULL,
  resume_completed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS belbin_questions (
  id TEXT PRIMARY KEY,
  number INTEGER NOT NULL UNIQUE,
  title TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS belbin_options (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL REFERENCES belbin_questions(id) ON DELETE CASCADE,
  text TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS neo_questions (
  id TEXT PRIMARY KEY,
  number INTEGER NOT NULL UNIQUE,
  title TEXT NOT NULL UNIQUE,
  trait_type TEXT NOT NULL,
  likert_labels_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS neo_options (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL REFERENCES neo_questions(id) ON DELETE CASCADE,
  option_number INTEGER NOT NULL,
  option_label TEXT NOT NULL,
  option_score INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS general_exams (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL UNIQUE,
  time_budget_min INTEGER NOT NULL,
  mode TEXT NOT NULL,
  project_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS general_questions (
  id TEXT PRIMARY KEY,
  exam_id TEXT NOT NULL REFERENCES general_exams(id) ON DELETE CASCADE,
  number INTEGER NOT NULL,
  title TEXT NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  UNIQUE (exam_id, number)
);

CREATE TABLE IF NOT EXISTS general_options (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL REFERENCES general_questions(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  is_correct INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS progress_tracks (
  user_id TEXT NOT NULL,
  track TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'started',
  started_at BIGINT NOT NULL DEFAULT 0,
  finished_at BIGINT NOT NULL DEFAULT 0,
  state_json TEXT NOT NULL,
  version BIGINT NOT NULL DEFAULT 1,
  PRIMARY KEY (user_id, track)
);

CREATE TABLE IF NOT EXISTS exam_results (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  exam_type TEXT NOT NULL,
  exam_id TEXT NOT NULL DEFAULT '',
  result_ref TEXT NOT NULL,
  uploaded_at BIGINT NOT NULL,
  UNIQUE (user_id, exam_type, exam_id)
);
`
