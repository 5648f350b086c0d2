package devapi

import "github.com/mind-engage/mindengage-revise/internal/db"

var Schema = db.Schema{
	db.DriverSQLite: `
CREATE TABLE IF NOT EXISTS classes (
  id   INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS subjects (
  id       INTEGER PRIMARY KEY AUTOINCREMENT,
  class_id INTEGER NOT NULL REFERENCES classes(id),
  name     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chapters (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  subject_id INTEGER NOT NULL REFERENCES subjects(id),
  title      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS flashcards (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  chapter_id INTEGER NOT NULL REFERENCES chapters(id),
  question   TEXT NOT NULL,
  answer     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mcqs (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  chapter_id INTEGER NOT NULL REFERENCES chapters(id),
  question   TEXT NOT NULL,
  option_a   TEXT NOT NULL,
  option_b   TEXT NOT NULL,
  option_c   TEXT NOT NULL,
  option_d   TEXT NOT NULL,
  correct    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
  id             INTEGER PRIMARY KEY AUTOINCREMENT,
  email          TEXT NOT NULL UNIQUE,
  password_hash  TEXT NOT NULL,
  created_at     INTEGER NOT NULL,
  verified       INTEGER NOT NULL DEFAULT 0,
  otp_code       TEXT,
  otp_expires_at INTEGER,
  username       TEXT,
  phone          TEXT,
  class_id       INTEGER,
  user_type      TEXT DEFAULT 'student'
);
CREATE TABLE IF NOT EXISTS progress (
  id             INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id        INTEGER NOT NULL REFERENCES users(id),
  chapter_id     INTEGER NOT NULL,
  accuracy       REAL NOT NULL DEFAULT 0,
  streak         INTEGER NOT NULL DEFAULT 0,
  last_practiced INTEGER NOT NULL,
  UNIQUE (user_id, chapter_id)
);
CREATE TABLE IF NOT EXISTS api_usages (
  user_id       INTEGER NOT NULL,
  usage_date    TEXT NOT NULL,
  request_count INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (user_id, usage_date)
);
CREATE TABLE IF NOT EXISTS user_mcq_attempts (
  id              INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id         INTEGER NOT NULL REFERENCES users(id),
  chapter_id      INTEGER NOT NULL,
  mcq_id          INTEGER NOT NULL REFERENCES mcqs(id),
  selected_answer TEXT NOT NULL,
  is_correct      INTEGER NOT NULL,
  attempted_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_user_chapter ON user_mcq_attempts(user_id, chapter_id);
CREATE TABLE IF NOT EXISTS user_reset_logs (
  user_id     INTEGER NOT NULL,
  chapter_id  INTEGER NOT NULL,
  reset_count INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (user_id, chapter_id)
);
`,
	db.DriverPostgres: `
CREATE TABLE IF NOT EXISTS classes (
  id   BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS subjects (
  id       BIGSERIAL PRIMARY KEY,
  class_id BIGINT NOT NULL REFERENCES classes(id),
  name     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chapters (
  id         BIGSERIAL PRIMARY KEY,
  subject_id BIGINT NOT NULL REFERENCES subjects(id),
  title      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS flashcards (
  id         BIGSERIAL PRIMARY KEY,
  chapter_id BIGINT NOT NULL REFERENCES chapters(id),
  question   TEXT NOT NULL,
  answer     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mcqs (
  id         BIGSERIAL PRIMARY KEY,
  chapter_id BIGINT NOT NULL REFERENCES chapters(id),
  question   TEXT NOT NULL,
  option_a   TEXT NOT NULL,
  option_b   TEXT NOT NULL,
  option_c   TEXT NOT NULL,
  option_d   TEXT NOT NULL,
  correct    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
  id             BIGSERIAL PRIMARY KEY,
  email          TEXT NOT NULL UNIQUE,
  password_hash  TEXT NOT NULL,
  created_at     BIGINT NOT NULL,
  verified       BOOLEAN NOT NULL DEFAULT FALSE,
  otp_code       TEXT,
  otp_expires_at BIGINT,
  username       TEXT,
  phone          TEXT,
  class_id       BIGINT,
  user_type      TEXT DEFAULT 'student'
);
CREATE TABLE IF NOT EXISTS progress (
  id             BIGSERIAL PRIMARY KEY,
  user_id        BIGINT NOT NULL REFERENCES users(id),
  chapter_id     BIGINT NOT NULL,
  accuracy       DOUBLE PRECISION NOT NULL DEFAULT 0,
  streak         INTEGER NOT NULL DEFAULT 0,
  last_practiced BIGINT NOT NULL,
  UNIQUE (user_id, chapter_id)
);
CREATE TABLE IF NOT EXISTS api_usages (
  user_id       BIGINT NOT NULL,
  usage_date    TEXT NOT NULL,
  request_count INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (user_id, usage_date)
);
CREATE TABLE IF NOT EXISTS user_mcq_attempts (
  id              BIGSERIAL PRIMARY KEY,
  user_id         BIGINT NOT NULL REFERENCES users(id),
  chapter_id      BIGINT NOT NULL,
  mcq_id          BIGINT NOT NULL REFERENCES mcqs(id),
  selected_answer TEXT NOT NULL,
  is_correct      BOOLEAN NOT NULL,
  attempted_at    BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_user_chapter ON user_mcq_attempts(user_id, chapter_id);
CREATE TABLE IF NOT EXISTS user_reset_logs (
  user_id     BIGINT NOT NULL,
  chapter_id  BIGINT NOT NULL,
  reset_count INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (user_id, chapter_id)
);
`,
}
