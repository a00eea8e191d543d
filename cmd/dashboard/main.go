package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-dashboard/internal/logger"
	"github.com/rxtech-lab/argo-dashboard/internal/ranking"
	"github.com/rxtech-lab/argo-dashboard/internal/reconciler"
	"github.com/rxtech-lab/argo-dashboard/internal/view"
	"github.com/rxtech-lab/argo-dashboard/pkg/marketdata"
)

func dashboardAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("schema") {
		config := marketdata.DefaultConfig()

		schemaJSON, err := config.GenerateSchemaJSON()
		if err != nil {
			return fmt.Errorf("failed to generate config schema: %w", err)
		}

		fmt.Println(schemaJSON)

		return nil
	}

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	config := marketdata.DefaultConfig()
	config.QuoteAsset = strings.ToUpper(cmd.String("quote"))
	config.Interval = cmd.String("interval")
	config.Depth = int(cmd.Int("depth"))
	config.HistoryLimit = int(cmd.Int("history"))

	client, err := marketdata.NewClient(config, time.Local, log)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	symbol := strings.ToUpper(cmd.String("coin")) + config.QuoteAsset
	basket := splitBasket(cmd.String("basket"), config.QuoteAsset)

	return runDashboard(ctx, client, symbol, basket, log)
}

// runDashboard wires the store, the reconciler and the render sink, then
// blocks until the user quits.
func runDashboard(ctx context.Context, client *marketdata.Client, symbol string, basket []string, log *logger.Logger) error {
	store := view.NewStore(symbol)
	store.SetCandleCapacity(client.Config().HistoryLimit)

	p := tea.NewProgram(NewModel(store.Snapshot()), tea.WithAltScreen())

	store.SetOnUpdate(func(snapshot view.Snapshot) {
		p.Send(StoreUpdatedMsg{Snapshot: snapshot})
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go bootstrap(ctx, client, store, symbol, basket, p, log)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard exited with error: %w", err)
	}

	return nil
}

// bootstrap loads the initial snapshots, then starts the live stream, the
// ticker refresh loop and the ranking pass. Snapshot failures surface on
// screen but leave the rest of the dashboard running.
func bootstrap(ctx context.Context, client *marketdata.Client, store *view.Store, symbol string, basket []string, p *tea.Program, log *logger.Logger) {
	icons, err := client.LoadIcons(ctx)
	if err != nil {
		log.Warn("Icon catalog unavailable, ticker list will be empty", zap.Error(err))
		p.Send(BootstrapErrorMsg{Err: err})

		icons = map[string]string{}
	}

	if tickers, err := client.LoadTickers(ctx, icons); err != nil {
		log.Warn("Initial ticker load failed", zap.Error(err))
		p.Send(BootstrapErrorMsg{Err: err})
	} else {
		store.ReplaceTickers(tickers)
	}

	if candles, err := client.LoadCandleHistory(ctx, symbol); err != nil {
		log.Warn("Candle history load failed", zap.String("symbol", symbol), zap.Error(err))
		p.Send(BootstrapErrorMsg{Err: err})
	} else {
		store.SeedCandles(candles)
	}

	if book, err := client.LoadOrderBookSnapshot(ctx, symbol); err != nil {
		log.Warn("Order book snapshot failed", zap.String("symbol", symbol), zap.Error(err))
		p.Send(BootstrapErrorMsg{Err: err})
	} else {
		store.SetBookSnapshot(book.Asks, book.Bids)
	}

	req, err := client.StreamRequest(symbol)
	if err != nil {
		p.Send(BootstrapErrorMsg{Err: err})

		return
	}

	r := reconciler.NewReconciler(client.StreamSource(), store, req, log)
	go func() {
		_ = r.Run(ctx)
	}()

	go func() {
		_ = client.RunTickerRefresh(ctx, icons, store.ReplaceTickers)
	}()

	go func() {
		selector := ranking.NewSelector(client.SnapshotLoader(), log)

		winner, err := selector.BestPerformer(ctx, basket)
		if err != nil {
			log.Warn("Ranking pass failed", zap.Error(err))

			return
		}

		store.SetRankedWinner(winner)
	}()

	p.Send(BootstrapDoneMsg{})
}

// splitBasket expands comma-separated base assets into full pair symbols.
func splitBasket(raw, quoteAsset string) []string {
	parts := strings.Split(raw, ",")
	basket := make([]string, 0, len(parts))

	for _, part := range parts {
		base := strings.TrimSpace(strings.ToUpper(part))
		if base == "" {
			continue
		}

		basket = append(basket, base+quoteAsset)
	}

	return basket
}

func main() {
	cmd := &cli.Command{
		Name:  "dashboard",
		Usage: "Live cryptocurrency market dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "coin",
				Aliases: []string{"c"},
				Usage:   "Base asset to watch",
				Value:   "BTC",
			},
			&cli.StringFlag{
				Name:  "quote",
				Usage: "Quote asset suffix for tradable pairs",
				Value: "USDT",
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Candle interval for the live chart",
				Value:   "1m",
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Order book levels per side (5, 10 or 20)",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "history",
				Usage: "Number of historical candles to seed the chart",
				Value: 30,
			},
			&cli.StringFlag{
				Name:  "basket",
				Usage: "Comma-separated base assets ranked for best performer",
				Value: "BTC,ETH,BNB,SOL,XRP",
			},
			&cli.BoolFlag{
				Name:  "schema",
				Usage: "Print the client configuration JSON schema and exit",
			},
		},
		Action: dashboardAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
