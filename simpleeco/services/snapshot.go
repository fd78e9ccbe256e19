package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/config"
	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
)

// Uploader is the part of *s3.Client the snapshot service needs.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type BalanceSource interface {
	CashSnapshot() map[uuid.UUID]decimal.Decimal
	BankSnapshot() map[uuid.UUID]decimal.Decimal
}

type StatsSource interface {
	Snapshot() map[string]store.Stats
}

type ItemSnapshot struct {
	Sold      int64 `json:"sold"`
	Bought    int64 `json:"bought"`
	LastTrade int64 `json:"last_trade"`
}

type Snapshot struct {
	TakenAt time.Time                     `json:"taken_at"`
	Cash    map[uuid.UUID]decimal.Decimal `json:"cash"`
	Bank    map[uuid.UUID]decimal.Decimal `json:"bank"`
	Items   map[string]ItemSnapshot       `json:"items"`
}

// NewSpacesClient builds an s3 client pointed at DigitalOcean Spaces.
func NewSpacesClient(ctx context.Context, key, secret, region string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load spaces config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.digitaloceanspaces.com", region)
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	}), nil
}

type SnapshotService struct {
	uploader Uploader
	bucket   string
	prefix   string
	balances BalanceSource
	stats    StatsSource
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSnapshotService(uploader Uploader, bucket, prefix string, balances BalanceSource, stats StatsSource, interval time.Duration) *SnapshotService {
	return &SnapshotService{
		uploader: uploader,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		balances: balances,
		stats:    stats,
		interval: interval,
		now:      time.Now,
	}
}

func (s *SnapshotService) Collect() Snapshot {
	items := make(map[string]ItemSnapshot)
	for item, st := range s.stats.Snapshot() {
		items[item] = ItemSnapshot{Sold: st.Sold, Bought: st.Bought, LastTrade: st.LastTrade.Unix()}
	}
	return Snapshot{
		TakenAt: s.now().UTC(),
		Cash:    s.balances.CashSnapshot(),
		Bank:    s.balances.BankSnapshot(),
		Items:   items,
	}
}

func (s *SnapshotService) key(at time.Time) string {
	name := fmt.Sprintf("snapshot-%d.json", at.Unix())
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// Upload writes one snapshot and returns the object key it was stored under.
func (s *SnapshotService) Upload(ctx context.Context) (string, error) {
	snap := s.Collect()
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := s.key(snap.TakenAt)
	_, err = s.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot %s: %w", key, err)
	}

	slog.Info("Snapshot uploaded",
		slog.String("type", "sys"),
		slog.String("component", "snapshot"),
		slog.String("key", key),
		slog.Int("cash_accounts", len(snap.Cash)),
		slog.Int("bank_accounts", len(snap.Bank)),
		slog.Int("items", len(snap.Items)))
	return key, nil
}

func (s *SnapshotService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				uploadCtx, cancelUpload := context.WithTimeout(ctx, config.SnapshotTimeout)
				if _, err := s.Upload(uploadCtx); err != nil {
					slog.Error("Snapshot upload failed",
						slog.String("type", "sys"),
						slog.String("component", "snapshot"),
						slog.Any("error", err))
				}
				cancelUpload()
			}
		}
	}(s.done)
}

func (s *SnapshotService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
