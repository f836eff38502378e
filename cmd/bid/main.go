package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bidline/internal/app"
	"bidline/internal/config"
	"bidline/internal/db"
	"bidline/internal/domain"
	"bidline/internal/engine"
	"bidline/internal/migrate"
	"bidline/internal/repo"
	"bidline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "bid",
	Short: "Bidline CLI",
	Long: `Bidline prepares commercial bids for industrial cable-supply RFPs.
Each run walks an RFP through risk screening, catalog matching with bounded
tolerance retries, commodity-indexed pricing, advisory analysis, and a final
approve/escalate/decline decision, recording every stage in the event log.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("BIDLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("desk", "", "desk id (overrides config default)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("desk", rootCmd.PersistentFlags().Lookup("desk"))
}

func registerCommands() {
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(rfpCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(ratesCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func catalogCmd() *cobra.Command {
	cat := &cobra.Command{Use: "catalog", Short: "Manage the product catalog"}
	cat.AddCommand(catalogSeedCmd())
	cat.AddCommand(catalogListCmd())
	cat.AddCommand(catalogShowCmd())
	return cat
}

func catalogSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample OEM catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				n, err := r.SeedCatalog(ctx, time.Now())
				if err != nil {
					return err
				}
				fmt.Printf("seeded %d SKUs\n", n)
				return nil
			})
		},
	}
}

func catalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog SKUs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListSKUs(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"SKU", "Material", "Insulation", "Cores", "Size mm2", "kV", "Base Price", "Certs"})
				for _, s := range items {
					tw.AppendRow(table.Row{s.SKU, s.Material, s.Insulation, s.Cores, s.SizeMM2, s.VoltageKV, s.BasePrice, strings.Join(s.Certifications, ",")})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func catalogShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <sku>",
		Short: "Show one SKU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				s, err := r.GetSKU(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(s)
			})
		},
	}
}

func rfpCmd() *cobra.Command {
	rfp := &cobra.Command{Use: "rfp", Short: "Manage RFP intake"}
	rfp.AddCommand(rfpSeedCmd())
	rfp.AddCommand(rfpImportCmd())
	rfp.AddCommand(rfpListCmd())
	rfp.AddCommand(rfpShowCmd())
	return rfp
}

func rfpSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample RFPs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				n, err := r.SeedRFPs(ctx, time.Now())
				if err != nil {
					return err
				}
				fmt.Printf("seeded %d RFPs\n", n)
				return nil
			})
		},
	}
}

func rfpImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an RFP from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file required")
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var rfp domain.RFPRequest
			if err := json.Unmarshal(data, &rfp); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				created, err := e.CreateRFP(ctx, rfp, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				fmt.Printf("imported %s (%d lines, due %s)\n", created.ID, len(created.Lines), created.DueDate)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to RFP JSON")
	return cmd
}

func rfpListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List RFPs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListRFPs(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Client", "Due", "Lines", "Bond", "LD"})
				for _, rfp := range items {
					tw.AppendRow(table.Row{rfp.ID, rfp.Title, rfp.Client, rfp.DueDate, len(rfp.Lines), rfp.BidBondRequired, rfp.LiquidatedDamages})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func rfpShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <rfp-id>",
		Short: "Show one RFP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				rfp, err := r.GetRFP(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(rfp)
			})
		},
	}
}

func runCmd() *cobra.Command {
	run := &cobra.Command{Use: "run", Short: "Execute and inspect workflow runs"}
	run.AddCommand(runProcessCmd())
	run.AddCommand(runProcessAllCmd())
	run.AddCommand(runListCmd())
	run.AddCommand(runShowCmd())
	return run
}

func runProcessCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "process <rfp-id>",
		Short: "Run the bid workflow for one RFP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if timeout > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, timeout)
					defer cancel()
				}
				run, err := e.ProcessRFP(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(run)
				}
				printRunSummary(run)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-run timeout (0 = none)")
	return cmd
}

func runProcessAllCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "process-all",
		Short: "Run the workflow for every stored RFP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				runs, err := e.ProcessAll(ctx, viper.GetString("actor-id"), workers)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(runs)
				}
				for _, run := range runs {
					printRunSummary(run)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "max concurrent runs")
	return cmd
}

func runListCmd() *cobra.Command {
	var f repo.RunFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				runs, err := r.ListRuns(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(runs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "RFP", "Status", "Decision", "Risk", "Retries", "Total", "Compliance"})
				for _, run := range runs {
					tw.AppendRow(table.Row{run.ID, run.RFPID, run.Status, run.Decision, run.RiskScore, run.RetryCount,
						fmt.Sprintf("%.2f", run.TotalBidValue), fmt.Sprintf("%.2f", run.TechnicalCompliance)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.RFPID, "rfp", "", "rfp filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.Decision, "decision", "", "decision filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max rows")
	return cmd
}

func runShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its bid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				run, err := r.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(run)
			})
		},
	}
}

func ratesCmd() *cobra.Command {
	rates := &cobra.Command{Use: "rates", Short: "Inspect and update commodity rates"}
	rates.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show current rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSON(e.Config().RateSnapshot())
			})
		},
	})
	rates.AddCommand(ratesSetCmd())
	return rates
}

func ratesSetCmd() *cobra.Command {
	var material string
	var rate float64
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set a commodity rate (USD per metric ton)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if material == "" {
				return fmt.Errorf("--material required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				deskID := e.Config().Desk.ID
				next, err := e.UpdateRate(ctx, deskID, material, rate, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				fmt.Printf("%s = %.2f USD/MT\n", material, next.Rates[material])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&material, "material", "", "commodity name")
	cmd.Flags().Float64Var(&rate, "rate", 0, "rate in USD per metric ton")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage desk configuration"}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved desk config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSON(e.Config())
			})
		},
	})
	cfg.AddCommand(configImportCmd())
	return cfg
}

func configImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import desk config from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file required")
			}
			loaded, err := config.FromFile(file)
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				deskID := viper.GetString("desk")
				if deskID == "" {
					deskID = loaded.Desk.ID
				}
				if err := r.UpsertDeskConfig(ctx, deskID, loaded); err != nil {
					return err
				}
				fmt.Printf("imported config for desk %s\n", deskID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to config YAML")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Event log"}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var runID, rfpID, evtType string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.LatestEvents(ctx, n, runID, rfpID, evtType)
				if err != nil {
					return err
				}
				return printJSON(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&runID, "run", "", "run filter")
	cmd.Flags().StringVar(&rfpID, "rfp", "", "rfp filter")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			deskID, cfg, err := app.ResolveDeskConfig(cmd.Context(), workspace, viper.GetString("desk"), r)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			handler, err := server.New(server.Config{Engine: &e, DeskID: deskID, BasePath: basePath})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Bidline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	_, cfg, err := app.ResolveDeskConfig(ctx, workspace, viper.GetString("desk"), r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRunSummary(run domain.Run) {
	fmt.Printf("run %s: %s", run.ID, run.Status)
	if run.Decision != "" && run.Decision != run.Status {
		fmt.Printf(" (%s)", run.Decision)
	}
	fmt.Println()
	fmt.Printf("  rfp %s, risk %d, retries %d, errors %d\n", run.RFPID, run.RiskScore, run.RetryCount, len(run.Errors))
	if run.Bid != nil {
		fmt.Printf("  total %.2f, compliance %.2f%%, %d lines\n",
			run.Bid.TotalBidValue, run.Bid.TechnicalCompliance, len(run.Bid.PricingLines))
	}
	for _, e := range run.Errors {
		fmt.Printf("  error: %s\n", e)
	}
}
