// Command seed wipes the gift catalog and loads the sample gifts.
//
// Destructive on purpose: run it once when setting up the registry, not
// against a database with live claims.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AdrianoMiguel/CasaNovaGabs/internal/config"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/model"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/repository/sqlite"
)

var sampleGifts = []model.Gift{
	{Name: "Jogo de Panelas", Description: "Conjunto de panelas antiaderentes com 5 peças"},
	{Name: "Liquidificador", Description: "Liquidificador 550W com jarra de 2 litros"},
	{Name: "Toalhas de Banho", Description: "Jogo de toalhas de banho com 4 peças"},
	{Name: "Conjunto de Copos", Description: "Conjunto com 6 copos de vidro"},
	{Name: "Cafeteira Elétrica", Description: "Cafeteira elétrica para até 20 cafezinhos"},
	{Name: "Ferro de Passar", Description: "Ferro de passar a vapor"},
	{Name: "Jogo de Cama", Description: "Jogo de cama casal com 4 peças"},
	{Name: "Mixer", Description: "Mixer 3 em 1 com copo medidor e processador"},
	{Name: "Assadeiras", Description: "Kit com 3 assadeiras de alumínio"},
	{Name: "Tábua de Vidro", Description: "Tábua de corte em vidro temperado"},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("creating data directory", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("opening database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	gifts := db.Gifts()

	if err := gifts.Purge(ctx); err != nil {
		logger.Error("clearing catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("catalog cleared")

	for i := range sampleGifts {
		gift := sampleGifts[i]
		if err := gifts.Create(ctx, &gift); err != nil {
			logger.Error("inserting gift",
				slog.String("name", gift.Name),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		logger.Info("gift inserted",
			slog.String("id", gift.ID),
			slog.String("name", gift.Name),
		)
	}

	logger.Info("seed complete", slog.Int("gifts", len(sampleGifts)))
}
