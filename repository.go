package bankcore

import "context"

// Snapshot is the persistable image of a Bank: every account with its full
// ledger, plus the counter used to mint the next account number.
type Snapshot struct {
	NumAccounts int64          `json:"num_accounts"`
	Accounts    []AccountState `json:"accounts"`
}

type AccountState struct {
	Number       int64         `json:"number"`
	Kind         AccountKind   `json:"kind"`
	Transactions []Transaction `json:"transactions"`
}

// Repository is the persistence collaborator. It is handed the
// post-mutation snapshot after each successful operation and consulted once
// at startup; the core never calls it mid-operation.
type Repository interface {
	SaveSnapshot(ctx context.Context, s Snapshot) error
	// LoadSnapshot returns (nil, nil) when nothing has been persisted yet.
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}
