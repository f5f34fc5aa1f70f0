package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"chat-room-service/internal/logging"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS chat_rooms (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            type TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'active',
            participant_a TEXT,
            participant_b TEXT,
            pair_key TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		// One active one-to-one room per unordered participant pair.
		`CREATE UNIQUE INDEX IF NOT EXISTS chat_rooms_pair_key_active
            ON chat_rooms (pair_key)
            WHERE type = 'one_to_one' AND status = 'active';`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
            id TEXT PRIMARY KEY,
            chat_room_id TEXT NOT NULL,
            sender_id TEXT NOT NULL,
            receiver_id TEXT,
            message TEXT NOT NULL,
            message_type TEXT NOT NULL DEFAULT 'text',
            status TEXT NOT NULL DEFAULT 'sent',
            timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS chat_messages_room_idx
            ON chat_messages (chat_room_id, timestamp);`,
		`CREATE TABLE IF NOT EXISTS chat_participants (
            id TEXT PRIMARY KEY,
            chat_room_id TEXT NOT NULL,
            member_id TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'member',
            joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS chat_participants_room_idx
            ON chat_participants (chat_room_id);`,
		`CREATE INDEX IF NOT EXISTS chat_participants_member_idx
            ON chat_participants (member_id);`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	logging.L().Info().Msg("database migrations applied")
	return nil
}
