package engine

import (
	"flowradar/internal/domain/flow"
	"flowradar/pkg/errors"
)

// validate rejects malformed trades before they reach any detector.
// Every returned error unwraps to ErrInvalidTrade.
func validate(t *flow.Trade) error {
	switch {
	case t == nil:
		return errors.NewValidationError("trade", "is nil", nil)
	case t.Symbol == "":
		return errors.NewValidationError("symbol", "is empty", t.Symbol)
	case t.Underlying == "":
		return errors.NewValidationError("underlying", "is empty", t.Underlying)
	case t.Type != flow.Call && t.Type != flow.Put:
		return errors.NewValidationError("type", "must be call or put", t.Type)
	case t.Price <= 0:
		return errors.NewValidationError("price", "must be positive", t.Price)
	case t.Size <= 0:
		return errors.NewValidationError("size", "must be positive", t.Size)
	case t.Strike <= 0:
		return errors.NewValidationError("strike", "must be positive", t.Strike)
	case t.Timestamp.IsZero():
		return errors.NewValidationError("timestamp", "is zero", t.Timestamp)
	case t.Expiration.Before(t.Timestamp):
		return errors.NewValidationError("expiration", "before trade time", t.Expiration)
	case t.Premium < 0:
		return errors.NewValidationError("premium", "must not be negative", t.Premium)
	}

	if t.Premium == 0 {
		// Feeds that omit per-contract premium get it derived from price
		t.Premium = t.Price * flow.ContractMultiplier
	}
	return nil
}
