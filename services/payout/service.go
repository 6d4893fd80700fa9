package payout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
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

	ledgers    repository.Repository[PayoutLedger]
	activities repository.Repository[PayoutActivity]
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

		ledgers:    repository.ProvideStore[PayoutLedger](p.DB),
		activities: repository.ProvideStore[PayoutActivity](p.DB),
	}
}

// listLimit caps the payout history returned to the dashboard. The full
// ledger stays queryable by id.
const listLimit = 200

func (s *Service) List(ctx context.Context, userID string) ([]*PayoutLedger, error) {
	ledgers, err := s.ledgers.Find(ctx, &PayoutLedger{UserID: userID},
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
		option.WithLimit(listLimit),
	)
	if err != nil {
		zap.L().Error("failed to query payout ledgers", zap.String("user_id", userID), zap.Error(err))
		return nil, errutil.Unavailable("payout ledger query failed", err)
	}
	return ledgers, nil
}

func (s *Service) Get(ctx context.Context, id string) (*PayoutLedger, error) {
	ledger, err := s.ledgers.FindOne(ctx, &PayoutLedger{ID: id})
	if err != nil {
		return nil, errutil.Unavailable("payout ledger query failed", err)
	}
	if ledger == nil {
		return nil, errutil.NotFound("payout ledger not found", nil)
	}
	return ledger, nil
}

type TransitionRequest struct {
	LedgerID string
	Target   Status
	ActorID  string
	// Notes overwrites admin_notes verbatim when set.
	Notes *string
}

// Transition moves a ledger along the settlement edges. An empty target is a
// no-op returning the unchanged row; an unknown target or illegal edge is an
// error. Entering Paid stamps processed_at once. The ledger update and its
// audit activity commit in a single transaction. Concurrent admins are
// last-write-wins; there is no version check.
func (s *Service) Transition(ctx context.Context, req TransitionRequest) (*PayoutLedger, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("ledger_id", req.LedgerID),
		zap.String("target", string(req.Target)),
	}

	if req.Target == "" {
		// The caller must name an explicit target; without one nothing moves.
		zap.L().With(opts...).Debug("transition request without target, ignoring")
		return s.Get(ctx, req.LedgerID)
	}

	if !req.Target.Valid() {
		return nil, errutil.BadRequest("unknown payout status", nil,
			errutil.WithDetails(errutil.Detail{Field: "target", Message: string(req.Target)}))
	}

	if req.ActorID == "" {
		return nil, errutil.BadRequest("transition requires an acting admin", nil)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.applyTransition(ctx, tx, req, ActionTransition, func(from Status) error {
			if from == req.Target {
				return nil
			}
			if !CanTransition(from, req.Target) {
				return errutil.Conflict("illegal payout transition", nil,
					errutil.WithDetails(
						errutil.Detail{Field: "from", Message: string(from)},
						errutil.Detail{Field: "to", Message: string(req.Target)},
					))
			}
			return nil
		})
	}); err != nil {
		zap.L().With(opts...).Error("payout transition failed", zap.Error(err))
		return nil, err
	}

	return s.Get(ctx, req.LedgerID)
}

type ReverseRequest struct {
	LedgerID string
	ActorID  string
	Notes    *string
}

// Reverse is the documented escape hatch out of a resolved state: it swaps
// Paid and Failed and records a payout.reversed activity. It replaces the
// UI's old generic toggle.
func (s *Service) Reverse(ctx context.Context, req ReverseRequest) (*PayoutLedger, error) {
	if req.ActorID == "" {
		return nil, errutil.BadRequest("reversal requires an acting admin", nil)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		ledgers := s.ledgers.WithTrx(tx)

		ledger, err := ledgers.FindOne(ctx, &PayoutLedger{ID: req.LedgerID}, option.WithLockingUpdate())
		if err != nil {
			return errutil.Unavailable("payout ledger query failed", err)
		}
		if ledger == nil {
			return errutil.NotFound("payout ledger not found", nil)
		}

		from := Status(ledger.Status)
		if !from.Terminal() {
			return errutil.Conflict("only a resolved payout can be reversed", nil,
				errutil.WithDetails(errutil.Detail{Field: "status", Message: ledger.Status}))
		}

		target := StatusFailed
		if from == StatusFailed {
			target = StatusPaid
		}

		return s.writeTransition(ctx, tx, ledger, target, ActionReverse, req.ActorID, req.Notes)
	}); err != nil {
		zap.L().Error("payout reversal failed", zap.String("ledger_id", req.LedgerID), zap.Error(err))
		return nil, err
	}

	return s.Get(ctx, req.LedgerID)
}

// applyTransition loads and locks the ledger, runs the legality guard, and
// writes the transition when the guard passes and the status actually moves.
func (s *Service) applyTransition(ctx context.Context, tx *gorm.DB, req TransitionRequest, action string, guard func(from Status) error) error {
	ledgers := s.ledgers.WithTrx(tx)

	ledger, err := ledgers.FindOne(ctx, &PayoutLedger{ID: req.LedgerID}, option.WithLockingUpdate())
	if err != nil {
		return errutil.Unavailable("payout ledger query failed", err)
	}
	if ledger == nil {
		return errutil.NotFound("payout ledger not found", nil)
	}

	from := Status(ledger.Status)
	if err := guard(from); err != nil {
		return err
	}
	if from == req.Target {
		// Repeated request for the state the row is already in.
		return nil
	}

	return s.writeTransition(ctx, tx, ledger, req.Target, action, req.ActorID, req.Notes)
}

func (s *Service) writeTransition(ctx context.Context, tx *gorm.DB, ledger *PayoutLedger, target Status, action, actorID string, notes *string) error {
	ledgers := s.ledgers.WithTrx(tx)
	activities := s.activities.WithTrx(tx)

	updates := map[string]any{
		"status": string(target),
	}
	if notes != nil {
		updates["admin_notes"] = *notes
	}
	if target == StatusPaid && ledger.ProcessedAt == nil {
		updates["processed_at"] = time.Now()
	}

	if err := ledgers.Update(ctx, ledger.ID, updates); err != nil {
		return errutil.Unavailable("failed to update payout ledger", err)
	}

	meta, _ := json.Marshal(map[string]any{
		"month":        ledger.Month,
		"year":         ledger.Year,
		"total_payout": ledger.TotalPayout,
	})

	activity := &PayoutActivity{
		ID:         s.node.Generate().String(),
		LedgerID:   ledger.ID,
		Action:     action,
		FromStatus: ledger.Status,
		ToStatus:   string(target),
		ActorID:    actorID,
		Metadata:   datatypes.JSON(meta),
	}
	if notes != nil {
		activity.Notes = *notes
	}

	// The audit row rides the same transaction: no activity, no transition.
	if err := activities.Create(ctx, activity); err != nil {
		return errutil.Unavailable("failed to record payout activity", err)
	}

	return nil
}

var Module = fx.Module("payout.service",
	fx.Provide(NewService),
)
