package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeathPenalty_Loss(t *testing.T) {
	p := DeathPenalty{Enabled: true, Percentage: d(0.25), Min: d(1), Max: d(10000)}

	tests := []struct {
		name string
		cash float64
		want float64
	}{
		{"quarter of cash", 400, 100},
		{"minimum applies", 2, 1},
		{"capped at cash", 0.5, 0.5},
		{"maximum applies", 100000, 10000},
		{"empty wallet", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Loss(d(tt.cash))
			assert.True(t, got.Equal(d(tt.want)), "got %s want %v", got, tt.want)
		})
	}

	p.Enabled = false
	assert.True(t, p.Loss(d(400)).IsZero())
}

func TestLedger_ApplyDeathPenalty(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, Options{
		StartBalance: d(400),
		DeathPenalty: DeathPenalty{Enabled: true, Percentage: d(0.25), Min: d(1), Max: d(10000)},
	})
	a := uuid.New()
	require.NoError(t, l.SetBank(ctx, a, d(500)))

	loss, err := l.ApplyDeathPenalty(ctx, a)
	require.NoError(t, err)
	assert.True(t, loss.Equal(d(100)))

	cash, _ := l.Cash(ctx, a)
	bank, _ := l.Bank(ctx, a)
	assert.True(t, cash.Equal(d(300)))
	assert.True(t, bank.Equal(d(500)), "bank is never touched")
}
