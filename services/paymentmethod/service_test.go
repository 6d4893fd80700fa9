package paymentmethod

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"publisher-revenuecore/pkg/errutil"
	"publisher-revenuecore/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &PaymentMethod{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func TestCreateFirstMethodBecomesDefault(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Create(context.Background(), CreateRequest{
		UserID: "user-1",
		Type:   TypeWire,
		Name:   "Main account",
	})
	require.NoError(t, err)
	require.True(t, first.IsDefault)

	second, err := svc.Create(context.Background(), CreateRequest{
		UserID: "user-1",
		Type:   TypeCrypto,
		Name:   "Cold wallet",
	})
	require.NoError(t, err)
	require.False(t, second.IsDefault)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: "user-1",
		Type:   Type("paypal"),
		Name:   "nope",
	})
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusBadRequest, be.Status())
}

func TestSetDefaultKeepsExactlyOneDefault(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateRequest{UserID: "user-1", Type: TypeWire, Name: "Main"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateRequest{UserID: "user-1", Type: TypeCrypto, Name: "Wallet"})
	require.NoError(t, err)

	require.NoError(t, svc.SetDefault(ctx, "user-1", second.ID))

	methods, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, methods, 2)

	defaults := 0
	for _, m := range methods {
		if m.IsDefault {
			defaults++
			require.Equal(t, second.ID, m.ID)
		}
	}
	require.Equal(t, 1, defaults)

	// Setting it back flips the flag atomically again.
	require.NoError(t, svc.SetDefault(ctx, "user-1", first.ID))

	methods, err = svc.List(ctx, "user-1")
	require.NoError(t, err)
	defaults = 0
	for _, m := range methods {
		if m.IsDefault {
			defaults++
			require.Equal(t, first.ID, m.ID)
		}
	}
	require.Equal(t, 1, defaults)
}

func TestSetDefaultIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	method, err := svc.Create(ctx, CreateRequest{UserID: "user-1", Type: TypeWire, Name: "Main"})
	require.NoError(t, err)

	require.NoError(t, svc.SetDefault(ctx, "user-1", method.ID))
	require.NoError(t, svc.SetDefault(ctx, "user-1", method.ID))

	methods, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, methods, 1)
	require.True(t, methods[0].IsDefault)
}

func TestDuplicateDefaultsReportedAsConsistencyError(t *testing.T) {
	svc := newTestService(t)

	rows := []*PaymentMethod{
		{ID: "pm-1", UserID: "user-1", Type: string(TypeWire), Name: "A", IsDefault: true},
		{ID: "pm-2", UserID: "user-1", Type: string(TypeCrypto), Name: "B", IsDefault: true},
	}
	require.NoError(t, svc.db.Create(rows).Error)

	err := svc.verifySingleDefault(context.Background(), "user-1")
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusInternal, be.Status())
}

func TestCreateDetectsRacingFirstDefault(t *testing.T) {
	svc := newTestService(t)

	// A rival first-time create commits its own default row right after this
	// one's insert, before the post-commit re-check runs.
	injected := false
	err := svc.db.Callback().Create().After("gorm:create").Register("rival_default", func(tx *gorm.DB) {
		if injected || tx.Error != nil {
			return
		}
		injected = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO payment_methods (id, user_id, type, name, is_default) VALUES (?, ?, ?, ?, ?)",
			"pm-rival", "user-1", string(TypeCrypto), "Rival", true,
		)
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateRequest{UserID: "user-1", Type: TypeWire, Name: "Main"})
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusInternal, be.Status())
}

func TestSetDefaultUnknownMethod(t *testing.T) {
	svc := newTestService(t)

	err := svc.SetDefault(context.Background(), "user-1", "missing")
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusNotFound, be.Status())
}

func TestSetDefaultIsScopedToOwner(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mine, err := svc.Create(ctx, CreateRequest{UserID: "user-1", Type: TypeWire, Name: "Mine"})
	require.NoError(t, err)

	// Another user cannot claim someone else's destination.
	err = svc.SetDefault(ctx, "user-2", mine.ID)
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusNotFound, be.Status())
}
