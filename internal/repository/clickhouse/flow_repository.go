package clickhouse

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"flowradar/internal/domain/flow"
	chwriter "flowradar/pkg/clickhouse"
	"flowradar/pkg/errors"
)

// Compile-time checks
var (
	_ flow.TradeSink    = (*FlowRepository)(nil)
	_ flow.PatternSink  = (*FlowRepository)(nil)
	_ flow.PositionSink = (*FlowRepository)(nil)
)

// FlowRepository persists trades, patterns and positioning snapshots.
// Trades go through a batch writer; patterns and positions are sparse
// enough to insert directly.
type FlowRepository struct {
	conn   driver.Conn
	trades *chwriter.BatchWriter
}

// NewFlowRepository creates the repository and its trade batch writer
func NewFlowRepository(conn driver.Conn) *FlowRepository {
	r := &FlowRepository{conn: conn}
	r.trades = chwriter.NewBatchWriter(chwriter.BatchWriterConfig{
		Table:     "option_trades",
		FlushFunc: r.flushTrades,
	})
	return r
}

// Start launches the trade batch writer
func (r *FlowRepository) Start(ctx context.Context) {
	r.trades.Start(ctx)
}

// Stop flushes and stops the trade batch writer
func (r *FlowRepository) Stop(ctx context.Context) error {
	return r.trades.Stop(ctx)
}

// InsertTrades buffers trades for batched insertion
func (r *FlowRepository) InsertTrades(ctx context.Context, trades []flow.Trade) error {
	for i := range trades {
		if err := r.trades.Add(ctx, trades[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *FlowRepository) flushTrades(ctx context.Context, rows []interface{}) error {
	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO option_trades (
			symbol, underlying, type, strike, expiration,
			premium, size, price, timestamp, sequence, exchange,
			side, aggressive, opening, sentiment,
			spot, open_interest, iv
		)`)
	if err != nil {
		return errors.Wrap(err, "prepare trade batch")
	}

	for _, row := range rows {
		t, ok := row.(flow.Trade)
		if !ok {
			continue
		}
		if err := batch.Append(
			t.Symbol, t.Underlying, string(t.Type), t.Strike, t.Expiration,
			t.Premium, int64(t.Size), t.Price, t.Timestamp, t.Sequence, t.Exchange,
			string(t.Side), t.Aggressive, t.Opening, string(t.Sentiment),
			t.Spot, t.OpenInterest, t.IV,
		); err != nil {
			return errors.Wrap(err, "append trade")
		}
	}
	return batch.Send()
}

// InsertPattern records one detected pattern
func (r *FlowRepository) InsertPattern(ctx context.Context, p *flow.Pattern) error {
	err := r.conn.Exec(ctx, `
		INSERT INTO flow_patterns (
			type, symbol, underlying, detected_at,
			premium, contracts, trade_count, signal, confidence,
			call_premium, put_premium
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.Type), p.Symbol, p.Underlying, p.DetectedAt,
		p.Premium, int64(p.Contracts), int64(p.TradeCount), int8(p.Signal), p.Confidence,
		p.CallPremium, p.PutPremium,
	)
	if err != nil {
		return errors.Wrap(err, "insert pattern")
	}
	return nil
}

// InsertPosition records one dealer-positioning snapshot
func (r *FlowRepository) InsertPosition(ctx context.Context, pos *flow.MarketMakerPosition) error {
	err := r.conn.Exec(ctx, `
		INSERT INTO mm_positions (
			symbol, calculated_at,
			net_delta, net_gamma, net_vega, net_theta,
			bias, hedge_pressure,
			call_volume, put_volume, call_oi, put_oi,
			max_pain_strike, gamma_concentration, gamma_squeeze_risk
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pos.Symbol, pos.CalculatedAt,
		pos.NetDelta, pos.NetGamma, pos.NetVega, pos.NetTheta,
		string(pos.Bias), string(pos.HedgePressure),
		int64(pos.CallVolume), int64(pos.PutVolume), pos.CallOI, pos.PutOI,
		pos.MaxPainStrike, pos.GammaConcentration, pos.GammaSqueezeRisk,
	)
	if err != nil {
		return errors.Wrap(err, "insert position")
	}
	return nil
}
