package migrations

import "gorm.io/gorm"

// migration001VideoSchema creates the four core tables with raw SQL so the
// delete semantics are explicit: deleting a profile cascades to its reference
// rows and jobs, while assets keep their rows with profile_id set to NULL.
// Timestamps are written by the application, not database defaults.
func migration001VideoSchema() Migration {
	return Migration{
		Version:     "001",
		Description: "Create video profile, reference, job, and asset tables",
		Up: func(tx *gorm.DB) error {
			stmts := []string{
				`CREATE TABLE IF NOT EXISTS video_profiles (
					id VARCHAR(26) PRIMARY KEY,
					name VARCHAR(200) NOT NULL,
					mode VARCHAR(20) NOT NULL,
					consent_checked BOOLEAN NOT NULL DEFAULT FALSE,
					generation_lock_json TEXT NOT NULL DEFAULT '{}',
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS video_profile_references (
					id VARCHAR(26) PRIMARY KEY,
					profile_id VARCHAR(26) NOT NULL,
					image_name VARCHAR(255) NOT NULL,
					sort_order INTEGER NOT NULL DEFAULT 0,
					FOREIGN KEY (profile_id) REFERENCES video_profiles (id) ON DELETE CASCADE,
					UNIQUE (profile_id, image_name)
				)`,
				`CREATE TABLE IF NOT EXISTS video_assets (
					id VARCHAR(26) PRIMARY KEY,
					filename VARCHAR(255) NOT NULL,
					duration REAL NOT NULL,
					fps INTEGER NOT NULL,
					width INTEGER NOT NULL,
					height INTEGER NOT NULL,
					created_at DATETIME NOT NULL,
					path TEXT NOT NULL,
					profile_id VARCHAR(26),
					FOREIGN KEY (profile_id) REFERENCES video_profiles (id) ON DELETE SET NULL
				)`,
				`CREATE TABLE IF NOT EXISTS video_jobs (
					id VARCHAR(26) PRIMARY KEY,
					profile_id VARCHAR(26) NOT NULL,
					status VARCHAR(20) NOT NULL,
					progress REAL NOT NULL DEFAULT 0,
					error VARCHAR(2000),
					output_video_id VARCHAR(26),
					request_json TEXT NOT NULL DEFAULT '{}',
					cancel_requested BOOLEAN NOT NULL DEFAULT FALSE,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					started_at DATETIME,
					ended_at DATETIME,
					FOREIGN KEY (profile_id) REFERENCES video_profiles (id) ON DELETE CASCADE,
					FOREIGN KEY (output_video_id) REFERENCES video_assets (id) ON DELETE SET NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_video_profile_references_profile_id
					ON video_profile_references (profile_id)`,
				`CREATE INDEX IF NOT EXISTS idx_video_jobs_profile_id
					ON video_jobs (profile_id)`,
				`CREATE INDEX IF NOT EXISTS idx_video_jobs_status
					ON video_jobs (status)`,
				`CREATE INDEX IF NOT EXISTS idx_video_assets_created_at
					ON video_assets (created_at DESC)`,
			}
			for _, stmt := range stmts {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(tx *gorm.DB) error {
			stmts := []string{
				`DROP TABLE IF EXISTS video_jobs`,
				`DROP TABLE IF EXISTS video_assets`,
				`DROP TABLE IF EXISTS video_profile_references`,
				`DROP TABLE IF EXISTS video_profiles`,
			}
			for _, stmt := range stmts {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
	}
}
