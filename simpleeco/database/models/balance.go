package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

const (
	CashBalanceTable = "cash_balance"
	BankBalanceTable = "bank_balance"
)

// Balance is the row shape shared by both balance tables.
type Balance struct {
	AccountID uuid.UUID       `bun:"account_id,pk,type:uuid"`
	Amount    decimal.Decimal `bun:"balance,type:numeric,notnull"`
	UpdatedAt time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
}

type CashBalance struct {
	bun.BaseModel `bun:"table:cash_balance,alias:cb"`
	Balance
}

type BankBalance struct {
	bun.BaseModel `bun:"table:bank_balance,alias:bb"`
	Balance
}
