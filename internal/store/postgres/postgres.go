// Package postgres is the alternate persistence backend: the same full
// snapshot the file backend writes, stored relationally. Each save replaces
// both tables in one transaction.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kumatsegayie/nunersupportbot/internal/models"
)

type Store struct{ db *pgxpool.Pool }

func Open(ctx context.Context, dsn string) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	s := &Store{db: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() { s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_tickets (
			user_id   BIGINT PRIMARY KEY,
			ticket_id TEXT   NOT NULL
		);
		CREATE TABLE IF NOT EXISTS ticket_mappings (
			message_id BIGINT PRIMARY KEY,
			ticket_id  TEXT   NOT NULL,
			user_id    BIGINT NOT NULL
		);
	`)
	return err
}

func (s *Store) Load(ctx context.Context) (*models.Snapshot, error) {
	snap := models.NewSnapshot()

	rows, err := s.db.Query(ctx, `SELECT user_id, ticket_id FROM user_tickets`)
	if err != nil {
		return models.NewSnapshot(), err
	}
	for rows.Next() {
		var userID int64
		var ticketID string
		if err := rows.Scan(&userID, &ticketID); err != nil {
			rows.Close()
			return models.NewSnapshot(), err
		}
		snap.UserTickets[userID] = ticketID
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return models.NewSnapshot(), err
	}

	rows, err = s.db.Query(ctx, `SELECT message_id, ticket_id, user_id FROM ticket_mappings`)
	if err != nil {
		return models.NewSnapshot(), err
	}
	defer rows.Close()
	for rows.Next() {
		var msgID, userID int64
		var ticketID string
		if err := rows.Scan(&msgID, &ticketID, &userID); err != nil {
			return models.NewSnapshot(), err
		}
		snap.TicketMappings[msgID] = models.Correlation{TicketID: ticketID, UserID: userID}
	}
	if err := rows.Err(); err != nil {
		return models.NewSnapshot(), err
	}
	return snap, nil
}

func (s *Store) Save(ctx context.Context, snap *models.Snapshot) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_tickets`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM ticket_mappings`); err != nil {
		return err
	}
	for userID, ticketID := range snap.UserTickets {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_tickets (user_id, ticket_id) VALUES ($1, $2)`,
			userID, ticketID); err != nil {
			return err
		}
	}
	for msgID, c := range snap.TicketMappings {
		if _, err := tx.Exec(ctx,
			`INSERT INTO ticket_mappings (message_id, ticket_id, user_id) VALUES ($1, $2, $3)`,
			msgID, c.TicketID, c.UserID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
