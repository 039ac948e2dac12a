package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"flidesk-checkout/internal/config"
	pg "flidesk-checkout/internal/infra/db/postgres"
	"flidesk-checkout/internal/usecase"
)

// Seeds the default plan catalogue into an empty database.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planRepo := pg.NewPlanRepo(pool)
	planUC := usecase.NewPlanUseCase(planRepo)

	// If plans already exist, do nothing
	plans, err := planUC.List(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		return
	}

	defaults := []struct {
		name  string
		price int64
	}{
		{"Starter", 4900},
		{"Growth", 14900},
		{"Scale", 39900},
	}
	for _, d := range defaults {
		plan, err := planUC.Create(ctx, d.name, d.price, "USD")
		if err != nil {
			log.Fatalf("create plan %s: %v", d.name, err)
		}
		fmt.Printf("created plan %s (%s)\n", plan.Name, plan.ID)
	}
}
