package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rxtech-lab/launchpad-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testOperatorAddress = "0x1111111111111111111111111111111111111111"
	testUserAddress     = "0x2222222222222222222222222222222222222222"
)

// fakeWalletStore lets tests drive every lookup outcome and count lookups.
type fakeWalletStore struct {
	record  *models.WalletRecord
	err     error
	lookups int
}

func (f *fakeWalletStore) GetWallet(ctx context.Context, fid int64) (*models.WalletRecord, error) {
	f.lookups++
	return f.record, f.err
}

func (f *fakeWalletStore) SetWallet(ctx context.Context, record *models.WalletRecord, ttl time.Duration) error {
	return nil
}

func fidPtr(v int64) *int64 { return &v }

func TestResolveWalletPolicyMatrix(t *testing.T) {
	ctx := context.Background()

	t.Run("no fid without policy resolves to operator with zero lookups", func(t *testing.T) {
		store := &fakeWalletStore{}
		service := NewWalletService(store, testOperatorAddress, false, zap.NewNop())

		res, err := service.ResolveWallet(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, models.WalletSourceOperatorDefault, res.Source)
		assert.Equal(t, testOperatorAddress, res.AdminAddress)
		assert.Equal(t, 0, store.lookups)
	})

	t.Run("rewards disabled with policy off falls back to operator", func(t *testing.T) {
		store := &fakeWalletStore{record: &models.WalletRecord{Fid: 7, Address: testUserAddress, EnableRewards: false}}
		service := NewWalletService(store, testOperatorAddress, false, zap.NewNop())

		res, err := service.ResolveWallet(ctx, fidPtr(7))
		require.NoError(t, err)
		assert.Equal(t, models.WalletSourceOperatorDefault, res.Source)
	})

	t.Run("rewards disabled with policy on is a wallet requirement error", func(t *testing.T) {
		store := &fakeWalletStore{record: &models.WalletRecord{Fid: 7, Address: testUserAddress, EnableRewards: false}}
		service := NewWalletService(store, testOperatorAddress, true, zap.NewNop())

		_, err := service.ResolveWallet(ctx, fidPtr(7))
		require.Error(t, err)
		assert.Equal(t, models.ErrorKindWalletRequirement, models.KindOf(err))
	})

	t.Run("valid record with rewards enabled resolves to user wallet", func(t *testing.T) {
		store := &fakeWalletStore{record: &models.WalletRecord{Fid: 7, Address: testUserAddress, EnableRewards: true}}
		service := NewWalletService(store, testOperatorAddress, false, zap.NewNop())

		res, err := service.ResolveWallet(ctx, fidPtr(7))
		require.NoError(t, err)
		assert.Equal(t, models.WalletSourceUserWallet, res.Source)
		assert.Equal(t, testUserAddress, res.AdminAddress)
		assert.Equal(t, testUserAddress, res.RewardRecipientAddress)
	})

	t.Run("store failure with policy off falls back to operator", func(t *testing.T) {
		store := &fakeWalletStore{err: errors.New("store unavailable")}
		service := NewWalletService(store, testOperatorAddress, false, zap.NewNop())

		res, err := service.ResolveWallet(ctx, fidPtr(7))
		require.NoError(t, err)
		assert.Equal(t, models.WalletSourceOperatorDefault, res.Source)
	})

	t.Run("store failure with policy on fails closed", func(t *testing.T) {
		store := &fakeWalletStore{err: errors.New("store unavailable")}
		service := NewWalletService(store, testOperatorAddress, true, zap.NewNop())

		_, err := service.ResolveWallet(ctx, fidPtr(7))
		require.Error(t, err)
		assert.Equal(t, models.ErrorKindWalletCheck, models.KindOf(err))
	})
}

func TestResolveWalletEdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("no fid with policy on requires a fid", func(t *testing.T) {
		service := NewWalletService(&fakeWalletStore{}, testOperatorAddress, true, zap.NewNop())

		_, err := service.ResolveWallet(ctx, nil)
		require.Error(t, err)
		assert.Equal(t, models.ErrorKindFidRequired, models.KindOf(err))
	})

	t.Run("missing record with policy on is a wallet requirement error", func(t *testing.T) {
		service := NewWalletService(&fakeWalletStore{}, testOperatorAddress, true, zap.NewNop())

		_, err := service.ResolveWallet(ctx, fidPtr(7))
		require.Error(t, err)
		assert.Equal(t, models.ErrorKindWalletRequirement, models.KindOf(err))
	})

	t.Run("malformed stored address is treated as not found", func(t *testing.T) {
		store := &fakeWalletStore{record: &models.WalletRecord{Fid: 7, Address: "0xnothex", EnableRewards: true}}

		normal := NewWalletService(store, testOperatorAddress, false, zap.NewNop())
		res, err := normal.ResolveWallet(ctx, fidPtr(7))
		require.NoError(t, err)
		assert.Equal(t, models.WalletSourceOperatorDefault, res.Source)

		strict := NewWalletService(store, testOperatorAddress, true, zap.NewNop())
		_, err = strict.ResolveWallet(ctx, fidPtr(7))
		assert.Equal(t, models.ErrorKindWalletRequirement, models.KindOf(err))
	})
}

func TestGormWalletStore(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.WalletRecord{}))

	store := NewWalletStore(db)
	ctx := context.Background()

	t.Run("missing record returns nil without error", func(t *testing.T) {
		record, err := store.GetWallet(ctx, 404)
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("set then get round trips", func(t *testing.T) {
		err := store.SetWallet(ctx, &models.WalletRecord{Fid: 7, Address: testUserAddress, EnableRewards: true}, time.Hour)
		require.NoError(t, err)

		record, err := store.GetWallet(ctx, 7)
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, testUserAddress, record.Address)
		assert.True(t, record.EnableRewards)
	})

	t.Run("set updates an existing record", func(t *testing.T) {
		err := store.SetWallet(ctx, &models.WalletRecord{Fid: 7, Address: testUserAddress, EnableRewards: false}, time.Hour)
		require.NoError(t, err)

		record, err := store.GetWallet(ctx, 7)
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.False(t, record.EnableRewards)
	})

	t.Run("expired record is treated as absent", func(t *testing.T) {
		err := store.SetWallet(ctx, &models.WalletRecord{Fid: 8, Address: testUserAddress, EnableRewards: true}, -time.Minute)
		require.NoError(t, err)

		record, err := store.GetWallet(ctx, 8)
		require.NoError(t, err)
		assert.Nil(t, record)
	})
}
