package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/dbx"
	"github.com/dmitrijs2005/keepsake/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Channel is the Postgres NOTIFY channel; the payload is the recipient id.
const Channel = "keepsake_entries"

// PGNotifier signals other server processes through pg_notify.
type PGNotifier struct {
	db dbx.DBTX
}

func NewPGNotifier(db dbx.DBTX) *PGNotifier {
	return &PGNotifier{db: db}
}

func (n *PGNotifier) Notify(ctx context.Context, recipientID string) error {
	if _, err := n.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, Channel, recipientID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// notificationConn is the part of *pgx.Conn the listener needs.
type notificationConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// connectPG is a seam for tests.
var connectPG = func(ctx context.Context, dsn string) (notificationConn, error) {
	return pgx.Connect(ctx, dsn)
}

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// PGListener holds a dedicated connection LISTENing on Channel and republishes
// every notification into a Hub.
type PGListener struct {
	dsn string
	hub *Hub
	log logging.Logger
}

func NewPGListener(dsn string, hub *Hub, log logging.Logger) *PGListener {
	return &PGListener{dsn: dsn, hub: hub, log: log.With("module", "feed")}
}

// Run blocks until ctx is cancelled, reconnecting with exponential backoff.
// After each (re)connect every listener is woken once, since notifications
// sent while disconnected are lost.
func (l *PGListener) Run(ctx context.Context) error {
	backoff := minBackoff
	for {
		connected, err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			backoff = minBackoff
		}
		l.log.Warn(ctx, "listen connection lost", "error", err, "retry_in", backoff.String())

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// listen reports whether LISTEN was established before the failure.
func (l *PGListener) listen(ctx context.Context) (bool, error) {
	conn, err := connectPG(ctx, l.dsn)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return false, fmt.Errorf("listen: %w", err)
	}
	l.log.Info(ctx, "listening for entry changes", "channel", Channel)
	l.hub.PublishAll()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return true, fmt.Errorf("wait: %w", err)
		}
		l.hub.Publish(n.Payload)
	}
}
