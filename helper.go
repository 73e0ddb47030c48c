package bankcore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LocalHelper manages a local database for the seeder and integration
// tests: schema setup/teardown from testdata SQL, plus demo data seeded
// through the same snapshot path the service uses.
type LocalHelper struct {
	Conn *pgx.Conn
}

func NewLocalHelper(cfg *Config) (*LocalHelper, error) {
	conn, err := pgx.Connect(context.Background(), cfg.Database.ConnectionString)
	if err != nil {
		return nil, err
	}
	return &LocalHelper{
		Conn: conn,
	}, nil
}

func (lh *LocalHelper) InitDB() (func(), error) {
	initSQLpath := filepath.Join("testdata", "init_db.sql")
	bits, err := os.ReadFile(initSQLpath)
	if err != nil {
		return nil, err
	}
	if _, err = lh.Conn.Exec(context.Background(), string(bits)); err != nil {
		return nil, err
	}
	return lh.teardownDB(), err
}

// SeedDemoAccounts builds a small demo bank and persists it through repo.
func (lh *LocalHelper) SeedDemoAccounts(repo Repository) error {
	node, err := snowflake.NewNode(111)
	if err != nil {
		return err
	}
	bank := NewBank(node)

	chk, err := bank.OpenAccount("checking")
	if err != nil {
		return err
	}
	sav, err := bank.OpenAccount("savings")
	if err != nil {
		return err
	}

	day, err := ParseDate("2024-01-05")
	if err != nil {
		return err
	}
	if err = chk.AddTransaction(decimal.NewFromInt(500), day, KindDeposit); err != nil {
		return err
	}
	if err = sav.AddTransaction(decimal.NewFromInt(1200), day, KindDeposit); err != nil {
		return err
	}
	if err = chk.AddTransaction(decimal.NewFromInt(-125), day.AddDate(0, 0, 7), KindWithdrawal); err != nil {
		return err
	}

	return repo.SaveSnapshot(context.Background(), bank.Snapshot())
}

func (lh *LocalHelper) teardownDB() func() {
	return func() {
		defer lh.Conn.Close(context.Background())

		tearSQLpath := filepath.Join("testdata", "teardown_db.sql")
		bits, err := os.ReadFile(tearSQLpath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "DB cleanup read teardown sql: %s", err.Error())
			return
		}
		if _, err = lh.Conn.Exec(context.Background(), string(bits)); err != nil {
			fmt.Fprintf(os.Stderr, "DB cleanup exec teardown sql: %s", err.Error())
			return
		}
	}
}
