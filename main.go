package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "ROLLCALL-backend/docs"
	"ROLLCALL-backend/internal/attendance"
	"ROLLCALL-backend/internal/commands"
	"ROLLCALL-backend/internal/confirm"
	"ROLLCALL-backend/internal/interpreter"
	"ROLLCALL-backend/internal/platform/config"
	"ROLLCALL-backend/internal/platform/db"
	"ROLLCALL-backend/internal/platform/logging"
	"ROLLCALL-backend/internal/platform/middleware"
	"ROLLCALL-backend/internal/roster"
)

// @title     ROLLCALL API
// @version   1.0
// @BasePath  /api
func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          "rollcall",
		Short:        "Voice driven class attendance",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "path to config.yaml")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := newApp(cmd.Context(), cfgPath)
				if err != nil {
					return err
				}
				defer a.close()
				return a.serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the tables if they do not exist",
			RunE: func(cmd *cobra.Command, _ []string) error {
				// 接続と DDL だけ。interpreter や redis の設定は要らない
				a, err := newBase(cmd.Context(), cfgPath)
				if err != nil {
					return err
				}
				defer a.close()
				a.logger.Info("schema is up to date", zap.String("driver", string(a.conn.Dialect)))
				return nil
			},
		},
		newCommandCmd(&cfgPath),
		&cobra.Command{
			Use:   "query <transcript>",
			Short: "Answer a spoken attendance question",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(cmd.Context(), cfgPath)
				if err != nil {
					return err
				}
				defer a.close()
				res, err := a.commands.Query(cmd.Context(), commands.QueryRequest{Transcript: strings.Join(args, " ")})
				return printResult(cmd, res, err)
			},
		},
		&cobra.Command{
			Use:   "confirm <token>",
			Short: "Execute a command that was waiting for confirmation (redis store only)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.LoadConfig(cfgPath)
				if err != nil {
					return err
				}
				if err := requireSharedStore(cfg); err != nil {
					return err
				}
				a, err := newApp(cmd.Context(), cfgPath)
				if err != nil {
					return err
				}
				defer a.close()
				res, err := a.commands.Confirm(cmd.Context(), commands.ConfirmRequest{Token: args[0]})
				return printResult(cmd, res, err)
			},
		},
	)
	return root
}

func newCommandCmd(cfgPath *string) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "command <transcript>",
		Short: "Interpret and run a spoken attendance command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer a.close()
			res, err := a.commands.Command(cmd.Context(), commands.CommandRequest{
				Transcript: strings.Join(args, " "),
				Force:      force,
			})
			return printResult(cmd, res, err)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt for update/delete")
	return cmd
}

func printResult(cmd *cobra.Command, res commands.Response, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// app は設定から組み立てた依存一式。
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	conn       *db.DB
	pending    confirm.PendingStore
	attendance *attendance.Service
	rosters    *roster.Service
	commands   *commands.Service
}

// requireSharedStore: memory の保留ストアはプロセスごとなので、別プロセスから
// 発行済みトークンを確定することはできない。
func requireSharedStore(cfg *config.Config) error {
	if cfg.Confirmation.Store != "redis" {
		return fmt.Errorf("confirm: confirmation.store is %q; tokens can only be redeemed across processes with store: redis", cfg.Confirmation.Store)
	}
	return nil
}

// newBase は config / logger / DB（マイグレーション済み）だけを組み立てる。
func newBase(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Mode, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger.Info("starting", zap.String("mode", cfg.Mode), zap.String("timezone", cfg.Timezone))

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := conn.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	logger.Info("connected to DB", zap.String("driver", string(conn.Dialect)), zap.String("dbname", cfg.DB.DBName))
	return &app{cfg: cfg, logger: logger, conn: conn}, nil
}

func newApp(ctx context.Context, cfgPath string) (*app, error) {
	a, err := newBase(ctx, cfgPath)
	if err != nil {
		return nil, err
	}
	cfg, logger := a.cfg, a.logger
	loc, err := cfg.Location()
	if err != nil {
		a.close()
		return nil, err
	}

	rosterStore := roster.NewSQLStore(a.conn)
	a.rosters = roster.NewService(rosterStore)
	var resolver roster.Resolver = rosterStore
	if cfg.Roster.Source == "static" {
		resolver = roster.NewStatic(cfg.Roster.Classes)
	}
	a.attendance = attendance.NewService(attendance.NewSQLStore(a.conn), resolver, loc)

	switch cfg.Confirmation.Store {
	case "redis":
		rs := confirm.NewRedisStore(cfg.Confirmation.Redis.Addr, cfg.Confirmation.Redis.Password, cfg.Confirmation.Redis.DB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rs.Ping(pctx); err != nil {
			rs.Close()
			a.close()
			return nil, fmt.Errorf("redis: ping %s: %w", cfg.Confirmation.Redis.Addr, err)
		}
		a.pending = rs
	default:
		a.pending = confirm.NewMemoryStore()
	}
	if cfg.Confirmation.Secret == "" {
		logger.Warn("confirmation.secret is empty; tokens will not survive a restart")
	}
	issuer, err := confirm.NewIssuer(cfg.Confirmation.Secret, cfg.Confirmation.TTL, a.pending)
	if err != nil {
		a.close()
		return nil, err
	}

	interp, err := interpreter.New(ctx, cfg.Interpreter, loc, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.commands = commands.NewService(interp, a.attendance, issuer, cfg.Confirmation.AllowForceResend, logger)
	return a, nil
}

func (a *app) close() {
	if c, ok := a.pending.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	if a.conn != nil {
		_ = a.conn.Close()
	}
	_ = a.logger.Sync()
}

func (a *app) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(a.logger), middleware.Recovery(a.logger))
	_ = r.SetTrustedProxies(nil)

	if a.cfg.Mode == config.ModeDev {
		// CORS（開発中のみ必要）
		origins := a.cfg.Server.AllowOrigin
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Location"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api")
	att := api.Group("/attendance")
	attendance.RegisterRoutes(att, a.attendance)
	commands.RegisterRoutes(att, a.commands)
	roster.RegisterRoutes(api.Group("/rosters"), a.rosters)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "no such route"}})
	})
	return r
}

func (a *app) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 証明書があれば TLS（config/tls/<mode>/ 配下）
	cert := a.cfg.Server.Certificate
	useTLS := cert.Cert != "" && cert.Key != ""
	certFile := fmt.Sprintf("config/tls/%s/%s", a.cfg.Mode, cert.Cert)
	keyFile := fmt.Sprintf("config/tls/%s/%s", a.cfg.Mode, cert.Key)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", srv.Addr), zap.Bool("tls", useTLS))
		var err error
		if useTLS {
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}
	a.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
