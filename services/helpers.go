package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/repositories"
)

// Broadcaster pushes realtime updates to subscribed UI clients. It is
// satisfied by *live.Hub; tests substitute a recorder.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// TxRunner wraps a unit of work in a database transaction. Services use
// it so a game completion and the standings writes it triggers either
// all commit or all roll back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

type sqlTxRunner struct {
	db *sql.DB
}

func NewTxRunner(db *sql.DB) TxRunner {
	return &sqlTxRunner{db: db}
}

func (r *sqlTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
