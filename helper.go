package match

// CalculateDepthChange calculates the depth change based on the book log.
// It returns a DepthChange struct indicating which side and price level should be updated.
// Note: For LogTypeMatch, the side returned is the Maker's side (opposite of the log's side).
func CalculateDepthChange(log *BookLog) DepthChange {
	switch log.Type {
	case LogTypeOpen:
		return DepthChange{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: log.Size,
		}
	case LogTypeCancel:
		return DepthChange{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: log.Size.Neg(),
		}
	case LogTypeMatch:
		// Match reduces liquidity from the Maker side.
		// The log.Side is the Taker's side, so we update the opposite side.
		return DepthChange{
			Side:     oppositeSide(log.Side),
			Price:    log.Price,
			SizeDiff: log.Size.Neg(),
		}
	case LogTypeReject:
		// Rejected size never entered the book, so no depth change.
		return DepthChange{}
	}

	return DepthChange{}
}

func oppositeSide(side Side) Side {
	if side == Buy {
		return Sell
	}
	return Buy
}
