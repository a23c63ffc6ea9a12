package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/gyaneshwarpardhi/notifyflow/internal/notification"
	"github.com/gyaneshwarpardhi/notifyflow/internal/preference"
	"github.com/gyaneshwarpardhi/notifyflow/internal/priority"
)

// Schema creates the tables PostgresStore expects.
const Schema = `
CREATE TABLE IF NOT EXISTS notifications (
	id             UUID PRIMARY KEY,
	recipient      TEXT NOT NULL,
	template_id    TEXT NOT NULL,
	title          TEXT NOT NULL,
	message        TEXT NOT NULL,
	type           TEXT NOT NULL,
	priority       TEXT NOT NULL,
	channels       TEXT[] NOT NULL DEFAULT '{}',
	status         TEXT NOT NULL,
	channel_status JSONB NOT NULL DEFAULT '{}',
	data           JSONB,
	metadata       JSONB NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL,
	sent_at        TIMESTAMPTZ,
	read_at        TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS notifications_recipient_created_idx ON notifications (recipient, created_at DESC);

CREATE TABLE IF NOT EXISTS notification_preferences (
	recipient       TEXT NOT NULL,
	channel         TEXT NOT NULL,
	is_enabled      BOOLEAN NOT NULL,
	quiet_enabled   BOOLEAN NOT NULL,
	quiet_start     TEXT NOT NULL,
	quiet_end       TEXT NOT NULL,
	frequency       TEXT NOT NULL,
	priority_filter TEXT NOT NULL,
	PRIMARY KEY (recipient, channel)
);`

const notificationColumns = `id, recipient, template_id, title, message, type, priority, channels, status, channel_status, data, metadata, created_at, sent_at, read_at`

// PostgresStore is a Store backed by PostgreSQL through lib/pq.
type PostgresStore struct {
	conn *sql.DB
}

// NewPostgres opens and pings a PostgreSQL connection.
func NewPostgres(dsn string) (*PostgresStore, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("connected to postgres")
	return &PostgresStore{conn: conn}, nil
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveNotification(ctx context.Context, n *notification.Notification) error {
	channelStatus, err := json.Marshal(n.ChannelStatus)
	if err != nil {
		return fmt.Errorf("failed to marshal channel status: %w", err)
	}
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			channel_status = EXCLUDED.channel_status,
			metadata = EXCLUDED.metadata,
			sent_at = EXCLUDED.sent_at,
			read_at = EXCLUDED.read_at
	`
	_, err = s.conn.ExecContext(ctx, query,
		n.ID, n.Recipient, n.TemplateID, n.Title, n.Message, n.Type, string(n.Priority),
		pq.Array(n.Channels), string(n.Status), channelStatus, data, metadata,
		n.CreatedAt, nullTime(n.SentAt), nullTime(n.ReadAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status notification.Status, sentAt *time.Time) error {
	query := `
		UPDATE notifications
		SET status = CASE WHEN status = 'read' THEN status ELSE $2 END,
			sent_at = COALESCE($3, sent_at)
		WHERE id = $1
	`
	res, err := s.conn.ExecContext(ctx, query, id, string(status), nullTime(sentAt))
	if err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	return expectRow(res, id)
}

func (s *PostgresStore) UpdateChannelStatus(ctx context.Context, id, channel string, status notification.Status, errMsg string) error {
	query := `
		UPDATE notifications
		SET channel_status = channel_status || jsonb_build_object($2::text, $3::text),
			metadata = CASE WHEN $4 = '' THEN metadata
				ELSE jsonb_set(metadata, '{channelErrors}',
					COALESCE(metadata->'channelErrors', '{}'::jsonb) || jsonb_build_object($2::text, $4::text))
				END
		WHERE id = $1
	`
	res, err := s.conn.ExecContext(ctx, query, id, channel, string(status), errMsg)
	if err != nil {
		return fmt.Errorf("failed to update channel status: %w", err)
	}
	return expectRow(res, id)
}

func (s *PostgresStore) MarkRead(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE notifications
		SET status = 'read', read_at = $2
		WHERE id = $1
	`
	res, err := s.conn.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return expectRow(res, id)
}

func (s *PostgresStore) GetNotification(ctx context.Context, id string) (*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(s.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListNotifications(ctx context.Context, recipient string, limit int) ([]*notification.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.conn.QueryContext(ctx, query, recipient, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Stats(ctx context.Context, recipient string) (notification.Stats, error) {
	query := `
		SELECT status, priority, COUNT(*)
		FROM notifications
		WHERE recipient = $1
		GROUP BY status, priority
	`
	stats := notification.NewStats()
	rows, err := s.conn.QueryContext(ctx, query, recipient)
	if err != nil {
		return stats, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, prio string
		var count int
		if err := rows.Scan(&status, &prio, &count); err != nil {
			return stats, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats.AddCount(notification.Status(status), prio, count)
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("error iterating stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) Preferences(ctx context.Context, recipient string) ([]preference.Preference, error) {
	query := `
		SELECT channel, is_enabled, quiet_enabled, quiet_start, quiet_end, frequency, priority_filter
		FROM notification_preferences
		WHERE recipient = $1
		ORDER BY channel
	`
	rows, err := s.conn.QueryContext(ctx, query, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	var out []preference.Preference
	for rows.Next() {
		var p preference.Preference
		var freq, filter string
		if err := rows.Scan(&p.Channel, &p.Enabled, &p.QuietHours.Enabled, &p.QuietHours.Start, &p.QuietHours.End, &freq, &filter); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		p.Frequency = preference.Frequency(freq)
		p.PriorityFilter = preference.PriorityFilter(filter)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SetPreferences(ctx context.Context, recipient string, prefs []preference.Preference) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notification_preferences WHERE recipient = $1`, recipient); err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	insert := `
		INSERT INTO notification_preferences
			(recipient, channel, is_enabled, quiet_enabled, quiet_start, quiet_end, frequency, priority_filter)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, p := range prefs {
		p.Normalize()
		if _, err := tx.ExecContext(ctx, insert, recipient, p.Channel, p.Enabled,
			p.QuietHours.Enabled, p.QuietHours.Start, p.QuietHours.End,
			string(p.Frequency), string(p.PriorityFilter)); err != nil {
			return fmt.Errorf("failed to insert preference %s: %w", p.Channel, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit preferences: %w", err)
	}
	return nil
}

func (s *PostgresStore) PruneRead(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM notifications WHERE status = 'read' AND read_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Close() error {
	if s.conn != nil {
		slog.Info("closing database connection")
		return s.conn.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*notification.Notification, error) {
	var n notification.Notification
	var prio, status string
	var channelStatus, data, metadata []byte
	var sentAt, readAt sql.NullTime
	err := row.Scan(
		&n.ID, &n.Recipient, &n.TemplateID, &n.Title, &n.Message, &n.Type, &prio,
		pq.Array(&n.Channels), &status, &channelStatus, &data, &metadata,
		&n.CreatedAt, &sentAt, &readAt,
	)
	if err != nil {
		return nil, err
	}
	n.Priority = priority.Priority(prio)
	n.Status = notification.Status(status)
	n.ChannelStatus = make(map[string]notification.Status)
	if len(channelStatus) > 0 {
		if err := json.Unmarshal(channelStatus, &n.ChannelStatus); err != nil {
			slog.Warn("failed to unmarshal channel status", "err", err, "notification_id", n.ID)
		}
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			slog.Warn("failed to unmarshal event data", "err", err, "notification_id", n.ID)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			slog.Warn("failed to unmarshal metadata", "err", err, "notification_id", n.ID)
		}
	}
	if sentAt.Valid {
		n.SentAt = &sentAt.Time
	}
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	return &n, nil
}

func expectRow(res sql.Result, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
