package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
)

type fakeUploader struct {
	mu      sync.Mutex
	err     error
	keys    []string
	bodies  [][]byte
	buckets []string
}

func (f *fakeUploader) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.keys = append(f.keys, aws.ToString(in.Key))
	f.buckets = append(f.buckets, aws.ToString(in.Bucket))
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeUploader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

type fakeBalances struct {
	cash, bank map[uuid.UUID]decimal.Decimal
}

func (f fakeBalances) CashSnapshot() map[uuid.UUID]decimal.Decimal { return f.cash }
func (f fakeBalances) BankSnapshot() map[uuid.UUID]decimal.Decimal { return f.bank }

type fakeStats map[string]store.Stats

func (f fakeStats) Snapshot() map[string]store.Stats { return f }

func TestSnapshotService_Upload(t *testing.T) {
	id := uuid.New()
	at := time.Unix(1700000000, 0)
	up := &fakeUploader{}
	svc := NewSnapshotService(up, "eco-backups", "/snapshots/",
		fakeBalances{
			cash: map[uuid.UUID]decimal.Decimal{id: decimal.RequireFromString("12.50")},
			bank: map[uuid.UUID]decimal.Decimal{id: decimal.NewFromInt(3)},
		},
		fakeStats{"DIAMOND": {Sold: 4, Bought: 1, LastTrade: at}},
		time.Minute)
	svc.now = func() time.Time { return at }

	key, err := svc.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "snapshots/snapshot-1700000000.json", key)
	assert.Equal(t, []string{"eco-backups"}, up.buckets)

	var got Snapshot
	require.NoError(t, json.Unmarshal(up.bodies[0], &got))
	assert.True(t, got.Cash[id].Equal(decimal.RequireFromString("12.5")))
	assert.True(t, got.Bank[id].Equal(decimal.NewFromInt(3)))
	assert.Equal(t, ItemSnapshot{Sold: 4, Bought: 1, LastTrade: at.Unix()}, got.Items["DIAMOND"])
}

func TestSnapshotService_UploadError(t *testing.T) {
	up := &fakeUploader{err: errors.New("access denied")}
	svc := NewSnapshotService(up, "b", "", fakeBalances{}, fakeStats{}, time.Minute)

	_, err := svc.Upload(context.Background())
	assert.ErrorContains(t, err, "access denied")
}

func TestSnapshotService_StartStop(t *testing.T) {
	up := &fakeUploader{}
	svc := NewSnapshotService(up, "b", "", fakeBalances{}, fakeStats{}, 10*time.Millisecond)

	svc.Start(context.Background())
	svc.Start(context.Background())
	require.Eventually(t, func() bool { return up.count() >= 2 }, time.Second, 5*time.Millisecond)
	svc.Stop()
	svc.Stop()

	n := up.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, up.count())
}
