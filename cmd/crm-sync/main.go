package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/getcher123/UD-MVP/internal/audit"
	"github.com/getcher123/UD-MVP/internal/config"
	"github.com/getcher123/UD-MVP/internal/model"
	"github.com/getcher123/UD-MVP/internal/recon"
	"github.com/getcher123/UD-MVP/internal/sheet"
	"github.com/getcher123/UD-MVP/internal/web"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crm-sync",
		Short: "Listing normalization and sheet reconciliation service",
		Long:  `Normalizes semi-structured real estate listings and reconciles them into the CRM spreadsheet with an idempotent audit trail.`,
	}

	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createImportCmd())
	rootCmd.AddCommand(createPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// createServeCmd runs the HTTP import API.
func createServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP import API",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			reconciler, cleanup, err := buildReconciler(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			return web.NewServer(cfg, reconciler, log).Start()
		},
	}
}

// createImportCmd processes one batch from a JSON file and prints the
// outcome.
func createImportCmd() *cobra.Command {
	var requestID string
	cmd := &cobra.Command{
		Use:   "import [batch.json]",
		Short: "Reconcile one batch from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read batch file: %w", err)
			}
			var batch model.Batch
			if err := json.Unmarshal(data, &batch); err != nil {
				return fmt.Errorf("failed to parse batch file: %w", err)
			}
			if requestID != "" {
				batch.RequestID = requestID
			}
			if batch.RequestID == "" {
				batch.RequestID = uuid.NewString()
			}

			reconciler, cleanup, err := buildReconciler(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := reconciler.Process(cmd.Context(), batch)
			if err != nil {
				return err
			}
			out, _ := json.MarshalIndent(resp, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&requestID, "request-id", "", "override the batch request id")
	return cmd
}

// createPingCmd checks connectivity of the configured backends.
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check spreadsheet, Redis and audit connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zap.NewNop()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			if cfg.SpreadsheetID == "" {
				fmt.Println("spreadsheet: not configured (memory store)")
			} else {
				store, err := sheet.NewGoogleStore(ctx, googleConfig(cfg), log)
				if err != nil {
					return fmt.Errorf("spreadsheet: %w", err)
				}
				rows, err := store.Snapshot(ctx)
				if err != nil {
					return fmt.Errorf("spreadsheet: %w", err)
				}
				fmt.Printf("spreadsheet: ok, %d rows (%s)\n", len(rows), store.SheetURL())
			}

			if cfg.RedisAddr == "" {
				fmt.Println("redis: not configured")
			} else {
				client := redisClient(cfg)
				defer client.Close()
				if err := client.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
				fmt.Println("redis: ok")
			}

			if cfg.AuditDatabaseURL == "" {
				fmt.Println("audit: not configured")
			} else {
				tracker, err := audit.Open(ctx, cfg.AuditDatabaseURL)
				if err != nil {
					return fmt.Errorf("audit: %w", err)
				}
				tracker.Close()
				fmt.Println("audit: ok")
			}
			return nil
		},
	}
}

// buildReconciler assembles the store, locker, cache and tracker from the
// configuration, degrading to in-process fallbacks when a backend is unset.
func buildReconciler(ctx context.Context, cfg *config.Config, log *zap.Logger) (*recon.Reconciler, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var store sheet.Store
	if cfg.SpreadsheetID == "" {
		log.Warn("SPREADSHEET_ID not set, using in-memory store; data is lost on exit")
		store = sheet.NewMemoryStore(cfg.Columns)
	} else {
		gs, err := sheet.NewGoogleStore(ctx, googleConfig(cfg), log)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		store = gs
	}

	var (
		locker recon.Locker
		cache  recon.Cache
	)
	if cfg.RedisAddr == "" {
		locker = recon.NewMutexLocker(cfg.LockWaitTimeout)
	} else {
		client := redisClient(cfg)
		cleanups = append(cleanups, func() { client.Close() })
		locker = recon.NewRedisLocker(client, "recon:lock:"+cfg.SpreadsheetID, 2*time.Minute, cfg.LockWaitTimeout)
		cache = recon.NewRedisCache(client, cfg.IdempotencyCacheTTL)
	}

	var tracker *audit.Tracker
	if cfg.AuditDatabaseURL != "" {
		t, err := audit.Open(ctx, cfg.AuditDatabaseURL)
		if err != nil {
			// Audit is best-effort; refusing to start over it would hurt more.
			log.Warn("audit database unavailable", zap.Error(err))
		} else {
			tracker = t
			cleanups = append(cleanups, func() { t.Close() })
		}
	}

	return recon.New(store, locker, cache, tracker, cfg, log), cleanup, nil
}

func googleConfig(cfg *config.Config) sheet.GoogleConfig {
	return sheet.GoogleConfig{
		SpreadsheetID:      cfg.SpreadsheetID,
		Worksheet:          cfg.WorksheetName,
		LogWorksheet:       cfg.LogWorksheetName,
		HeaderRow:          cfg.HeaderRow,
		ServiceAccountFile: cfg.ServiceAccountFile,
		Columns:            cfg.Columns,
	}
}

func redisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
