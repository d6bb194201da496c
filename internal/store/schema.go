package store

const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	wallet TEXT NOT NULL UNIQUE,
	email TEXT,
	username TEXT,
	is_admin BOOLEAN NOT NULL DEFAULT 0,
	is_white_listed BOOLEAN NOT NULL DEFAULT 0,
	legacy_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS artists (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	lcname TEXT NOT NULL,

	-- Platform handles, NULL until linked
	spotify TEXT,
	instagram TEXT,
	x TEXT,
	youtube TEXT,
	soundcloud TEXT,
	tiktok TEXT,
	facebook TEXT,
	bandcamp TEXT,
	audius TEXT,
	zora TEXT,
	catalog TEXT,
	soundxyz TEXT,
	lens TEXT,
	farcaster TEXT,
	ens TEXT,
	wallet TEXT,

	bio TEXT,
	added_by TEXT REFERENCES users(id),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artists_lcname ON artists(lcname);
CREATE INDEX IF NOT EXISTS idx_artists_spotify ON artists(spotify);
CREATE INDEX IF NOT EXISTS idx_artists_added_by ON artists(added_by, created_at);

CREATE TABLE IF NOT EXISTS ugcresearch (
	id TEXT PRIMARY KEY,
	artist_id TEXT REFERENCES artists(id),
	user_id TEXT NOT NULL,
	site_name TEXT NOT NULL,
	ugc_url TEXT NOT NULL,
	site_username TEXT NOT NULL DEFAULT '',
	accepted BOOLEAN NOT NULL DEFAULT 0,
	date_processed DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ugc_artist ON ugcresearch(artist_id, site_name);
CREATE INDEX IF NOT EXISTS idx_ugc_user ON ugcresearch(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_ugc_pending ON ugcresearch(accepted, date_processed);

CREATE TABLE IF NOT EXISTS urlmap (
	site_name TEXT PRIMARY KEY,
	card_platform_name TEXT NOT NULL,
	card_description TEXT NOT NULL,
	app_string_format TEXT NOT NULL,
	example TEXT NOT NULL DEFAULT '',
	regex TEXT NOT NULL,
	card_order INTEGER NOT NULL DEFAULT 0,
	platform_types TEXT NOT NULL DEFAULT '[]',
	is_enabled BOOLEAN NOT NULL DEFAULT 1,
	is_web3_site BOOLEAN NOT NULL DEFAULT 0,
	site_image TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS notification_state (
	key TEXT PRIMARY KEY,
	last_sent_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS coverage_reports (
	id TEXT PRIMARY KEY,
	repository TEXT NOT NULL,
	branch TEXT NOT NULL,
	commit_sha TEXT NOT NULL,
	coverage TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_coverage_repo_branch ON coverage_reports(repository, branch, created_at);

CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	data BLOB,
	expires_at DATETIME
);
`
