package usecase

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchwire/internal/platform/logging"
)

const DefaultQuotaFloor = 2

// BudgetGuard stops a tracking loop before the shared daily quota is drained
// below what the scheduler needs for its own discovery queries.
type BudgetGuard struct {
	floor  int
	logger *logging.Logger
}

func NewBudgetGuard(floor int, logger *logging.Logger) *BudgetGuard {
	if floor <= 0 {
		floor = DefaultQuotaFloor
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BudgetGuard{floor: floor, logger: logger}
}

func (g *BudgetGuard) Floor() int {
	return g.floor
}

// Check fails with ErrQuotaExhausted when remaining is known and below the floor.
func (g *BudgetGuard) Check(ctx context.Context, remaining int) error {
	if remaining < 0 {
		g.logger.DebugContext(ctx, "remaining quota unknown, skipping budget check")
		return nil
	}
	if remaining < g.floor {
		return crerr.Mark(
			crerr.Newf("remaining quota %d is below floor %d", remaining, g.floor),
			ErrQuotaExhausted,
		)
	}
	return nil
}
