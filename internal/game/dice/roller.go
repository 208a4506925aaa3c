package dice

import "go.uber.org/zap"

// Roll evaluates expr with src.
//
// Precondition: expr came from Parse or has Count == 0 or Sides >= 2.
// Postcondition: len(result.Dice) == expr.Count and every die is in [1, Sides].
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	raw := expr.Raw
	if raw == "" {
		raw = expr.String()
	}
	return RollResult{Expression: raw, Dice: rolled, Modifier: expr.Modifier}
}

// RollExpr parses expr and rolls it with src.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src), nil
}

// Roller wraps a Source and logs every roll at debug level. A Roller is
// itself a Source, so zones can share one.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs to logger.
//
// Precondition: src must be non-nil. A nil logger is replaced with a no-op.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if src == nil {
		panic("dice.NewLoggedRoller: src must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Intn implements Source.
func (r *Roller) Intn(n int) int { return r.src.Intn(n) }

// Roll evaluates expr and logs the result.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses expr and rolls it, logging the result.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

// Percent runs a logged chance-in-100 check.
func (r *Roller) Percent(chance int) bool {
	ok := Percent(r.src, chance)
	r.logger.Debug("percent check", zap.Int("chance", chance), zap.Bool("success", ok))
	return ok
}
