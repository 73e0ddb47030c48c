package bankcore

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	pgDeleteTxnsSQL = `
		DELETE FROM transactions;
	`

	pgDeleteAcctsSQL = `
		DELETE FROM accounts;
	`

	pgInsertAcctSQL = `
		INSERT INTO accounts (account_number, account_type)
		VALUES ($1, $2);
	`

	pgInsertTxnSQL = `
		INSERT INTO transactions (seq, account_number, posted_on, amount, kind)
		VALUES ($1, $2, $3, $4, $5);
	`

	pgSelectAcctsSQL = `
		SELECT account_number, account_type
		FROM accounts
		ORDER BY account_number;
	`

	pgSelectTxnsSQL = `
		SELECT seq, account_number, posted_on, amount, kind
		FROM transactions
		ORDER BY account_number, seq;
	`
)

type PostgresEndpoint struct {
	pool *pgxpool.Pool
	log  *zerolog.Logger
}

var (
	_ Repository = (*PostgresEndpoint)(nil)
)

func NewPostgresEndpoint(connStr string, log *zerolog.Logger) (*PostgresEndpoint, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	if err = pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	endpt := &PostgresEndpoint{
		pool: pool,
		log:  log,
	}
	return endpt, err
}

// SaveSnapshot replaces the stored state with the snapshot in one
// transaction. The ledger is small and append-only, so a full rewrite
// stays cheap and keeps the store an exact mirror of the in-memory bank.
func (pg *PostgresEndpoint) SaveSnapshot(ctx context.Context, s Snapshot) error {
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	batch.Queue(pgDeleteTxnsSQL)
	batch.Queue(pgDeleteAcctsSQL)
	for _, acct := range s.Accounts {
		batch.Queue(pgInsertAcctSQL, acct.Number, string(acct.Kind))
		for _, t := range acct.Transactions {
			batch.Queue(pgInsertTxnSQL, t.Seq.Int64(), t.AcctNum, t.Date, t.Amount, string(t.Kind))
		}
	}
	btresults := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err = btresults.Exec(); err != nil {
			btresults.Close()
			if rberr := tx.Rollback(ctx); rberr != nil {
				pg.log.Err(rberr).Msg("snapshot save rollback fail")
			}
			return err
		}
	}
	if err = btresults.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// LoadSnapshot reads the stored state back, (nil, nil) when empty.
func (pg *PostgresEndpoint) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, pgSelectAcctsSQL)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{}
	idx := make(map[int64]int)
	for rows.Next() {
		var (
			num  int64
			kind string
		)
		if err = rows.Scan(&num, &kind); err != nil {
			rows.Close()
			return nil, err
		}
		idx[num] = len(snap.Accounts)
		snap.Accounts = append(snap.Accounts, AccountState{
			Number: num,
			Kind:   AccountKind(kind),
		})
		if num > snap.NumAccounts {
			snap.NumAccounts = num
		}
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(snap.Accounts) == 0 {
		return nil, nil
	}

	rows, err = conn.Query(ctx, pgSelectTxnsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			seq    int64
			num    int64
			posted time.Time
			amount decimal.Decimal
			kind   string
		)
		if err = rows.Scan(&seq, &num, &posted, &amount, &kind); err != nil {
			return nil, err
		}
		i, ok := idx[num]
		if !ok {
			continue
		}
		snap.Accounts[i].Transactions = append(snap.Accounts[i].Transactions, Transaction{
			AcctNum: num,
			Date:    time.Date(posted.Year(), posted.Month(), posted.Day(), 0, 0, 0, 0, time.UTC),
			Amount:  amount,
			Kind:    TransactionKind(kind),
			Seq:     snowflake.ID(seq),
		})
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return snap, nil
}
