package paymentmethod

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"publisher-revenuecore/pkg/db/option"
	"publisher-revenuecore/pkg/errutil"
	"publisher-revenuecore/pkg/repository"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	methods repository.Repository[PaymentMethod]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,

		methods: repository.ProvideStore[PaymentMethod](p.DB),
	}
}

type CreateRequest struct {
	UserID  string
	Type    Type
	Name    string
	Details datatypes.JSON
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*PaymentMethod, error) {
	if req.UserID == "" {
		return nil, errutil.BadRequest("user id is required", nil)
	}
	if !req.Type.Valid() {
		return nil, errutil.BadRequest("unsupported payment method type", nil,
			errutil.WithDetails(errutil.Detail{Field: "type", Message: string(req.Type)}))
	}

	method := &PaymentMethod{
		ID:      s.node.Generate().String(),
		UserID:  req.UserID,
		Type:    string(req.Type),
		Name:    req.Name,
		Details: req.Details,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		methods := s.methods.WithTrx(tx)

		// The first destination a user registers becomes their default.
		count, err := methods.Count(ctx, &PaymentMethod{UserID: req.UserID})
		if err != nil {
			return errutil.Unavailable("payment method query failed", err)
		}
		method.IsDefault = count == 0

		return methods.Create(ctx, method)
	}); err != nil {
		zap.L().Error("failed to create payment method", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	// Two first-time creates can race past the count and both claim the
	// flag; a writer that set it re-checks the invariant after commit.
	if method.IsDefault {
		if err := s.verifySingleDefault(ctx, req.UserID); err != nil {
			return nil, err
		}
	}

	return method, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*PaymentMethod, error) {
	methods, err := s.methods.Find(ctx, &PaymentMethod{UserID: userID},
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "asc",
			Allow:   map[string]bool{"created_at": true},
		}),
	)
	if err != nil {
		return nil, errutil.Unavailable("payment method query failed", err)
	}
	return methods, nil
}

// SetDefault makes methodID the user's single default destination. Clearing
// the old default and setting the new one run in one transaction under row
// locks, and the result is re-verified afterward: anything other than
// exactly one default is reported as a consistency error, not papered over.
func (s *Service) SetDefault(ctx context.Context, userID, methodID string) error {
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		tx = tx.Scopes(option.LockingUpdate)
		methods := s.methods.WithTrx(tx)

		method, err := methods.FindOne(ctx, &PaymentMethod{ID: methodID, UserID: userID})
		if err != nil {
			return errutil.Unavailable("payment method query failed", err)
		}
		if method == nil {
			return errutil.NotFound("payment method not found", nil)
		}

		if err := tx.WithContext(ctx).Model(&PaymentMethod{}).
			Where("user_id = ? AND is_default = ?", userID, true).
			Update("is_default", false).Error; err != nil {
			return errutil.Unavailable("failed to clear default payment method", err)
		}

		return methods.Update(ctx, methodID, map[string]any{"is_default": true})
	}); err != nil {
		zap.L().Error("failed to set default payment method",
			zap.String("user_id", userID), zap.String("method_id", methodID), zap.Error(err))
		return err
	}

	return s.verifySingleDefault(ctx, userID)
}

func (s *Service) verifySingleDefault(ctx context.Context, userID string) error {
	count, err := s.methods.Count(ctx, &PaymentMethod{UserID: userID, IsDefault: true})
	if err != nil {
		return errutil.Unavailable("payment method query failed", err)
	}
	if count != 1 {
		zap.L().Error("default payment method invariant violated",
			zap.String("user_id", userID), zap.Int64("defaults", count))
		return errutil.Internal("default payment method is not unique", nil,
			errutil.WithDetails(errutil.Detail{Field: "user_id", Message: userID}))
	}
	return nil
}

var Module = fx.Module("paymentmethod.service",
	fx.Provide(NewService),
)
