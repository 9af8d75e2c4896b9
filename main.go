package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/itbasis/go-clock"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/youcodecowboy/fantasy-hockey-analysis/config"
	"github.com/youcodecowboy/fantasy-hockey-analysis/controller"
	"github.com/youcodecowboy/fantasy-hockey-analysis/db"
	"github.com/youcodecowboy/fantasy-hockey-analysis/db/memdb"
	"github.com/youcodecowboy/fantasy-hockey-analysis/platforms/together"
	"github.com/youcodecowboy/fantasy-hockey-analysis/platforms/yahoo"
	"github.com/youcodecowboy/fantasy-hockey-analysis/tokens"
	"github.com/youcodecowboy/fantasy-hockey-analysis/web"
	"golang.org/x/oauth2"
)

const appName = "fantasy hockey"

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "error loading .env file: %v\n", err)
		os.Exit(1)
	}

	var configPath string
	root := &cobra.Command{
		Use:           "fantasy-hockey",
		Short:         "Yahoo fantasy hockey sync service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(syncCmd(&configPath))
	root.AddCommand(sessionTokenCmd(&configPath))

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return cfg, nil
}

// app is everything a command needs, built once from the config.
type app struct {
	ctrl  controller.C
	close func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	clock := clock.New()

	var store db.DB
	closers := []func(){}
	switch cfg.Store.Kind {
	case config.StorePostgres:
		sealer, err := db.ParseSealerKey(cfg.Store.TokenKey)
		if err != nil {
			return nil, err
		}
		store, err = db.New(ctx, cfg.Store.PostgresURL, clock, sealer)
		if err != nil {
			return nil, fmt.Errorf("cannot connect to DB: %w", err)
		}
	default:
		log.Warn().Msg("using the in-memory store, nothing will survive a restart")
		store = memdb.New(clock)
	}

	yahooConfig := &oauth2.Config{
		ClientID:     cfg.Yahoo.ClientID,
		ClientSecret: cfg.Yahoo.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.Yahoo.AuthURL,
			TokenURL:  cfg.Yahoo.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		RedirectURL: cfg.Yahoo.RedirectURL,
		Scopes:      []string{"openid", "fspt-r"},
	}

	var opts []tokens.Option
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("cannot reach redis: %w", err)
		}
		closers = append(closers, func() { client.Close() })
		opts = append(opts, tokens.WithLocker(tokens.NewRedisLock(client, cfg.Redis.LockTTL)))
	}
	if cfg.Yahoo.OIDCIssuer != "" {
		ident, err := tokens.NewOIDCIdentifier(ctx, cfg.Yahoo.OIDCIssuer)
		if err != nil {
			log.Warn().Err(err).Str("issuer", cfg.Yahoo.OIDCIssuer).Msg("yahoo subjects will not be recorded")
		} else {
			opts = append(opts, tokens.WithIdentifier(ident))
		}
	}
	mgr := tokens.NewManager(yahooConfig, store, clock, opts...)

	yahooClient := yahoo.New(mgr,
		yahoo.WithBaseURL(cfg.Yahoo.APIURL),
		yahoo.WithRateLimit(cfg.Yahoo.RateLimit, int(max(cfg.Yahoo.RateLimit, 1))),
		yahoo.WithHTTPClient(&http.Client{Timeout: cfg.Yahoo.Timeout}),
	)

	var linkConfig *oauth2.Config
	if cfg.YahooEnabled() {
		linkConfig = yahooConfig
	} else {
		log.Warn().Msg("yahoo client id, secret or redirect url missing, account linking is off")
	}

	var analyst controller.Analyst
	if cfg.Together.APIKey != "" {
		analyst = together.New(cfg.Together.APIKey, cfg.Together.Model, cfg.Together.Timeout)
	}

	ctrl, err := controller.New(clock, store, yahooClient, mgr, linkConfig, analyst)
	if err != nil {
		return nil, fmt.Errorf("error creating a new controller: %w", err)
	}

	return &app{
		ctrl: ctrl,
		close: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			figure.NewFigure(appName, "cybermedium", true).Print()
			fmt.Println()

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			server, err := web.NewServer(cfg.Server, a.ctrl)
			if err != nil {
				return fmt.Errorf("error creating new web server: %w", err)
			}

			shutdown := make(chan bool)
			wg := &sync.WaitGroup{}

			// Catch ctrl-c and SIGTERM and shut everything down properly.
			sigChannel := make(chan os.Signal, 2)
			signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigChannel
				close(shutdown)

				if err := waitTimeout(wg, 10*time.Second); err != nil {
					log.Error().Msg("timed out waiting for proper shutdown")
					os.Exit(255)
				}
			}()

			wg.Add(1)
			go server.ListenAndServe(shutdown, wg)

			wg.Wait()
			log.Info().Msg("server shutdown")
			return nil
		},
	}
}

func syncCmd(configPath *string) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync Yahoo data for one linked user",
	}
	cmd.PersistentFlags().StringVar(&userID, "user", "", "local user id (required)")
	cmd.MarkPersistentFlagRequired("user")

	run := func(fn func(ctx context.Context, ctrl controller.C) (any, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := fn(cmd.Context(), a.ctrl)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "leagues",
		Short: "Sync the user's hockey leagues",
		RunE: run(func(ctx context.Context, ctrl controller.C) (any, error) {
			return ctrl.SyncLeagues(ctx, userID)
		}),
	})

	var leagueID int32
	teams := &cobra.Command{
		Use:   "teams",
		Short: "Sync the teams of a league",
		RunE: run(func(ctx context.Context, ctrl controller.C) (any, error) {
			return ctrl.SyncTeams(ctx, userID, leagueID)
		}),
	}
	teams.Flags().Int32Var(&leagueID, "league", 0, "local league id")

	var week int
	matchups := &cobra.Command{
		Use:   "matchups",
		Short: "Sync a league's scoreboard for one week",
		RunE: run(func(ctx context.Context, ctrl controller.C) (any, error) {
			return ctrl.SyncMatchups(ctx, userID, leagueID, week)
		}),
	}
	matchups.Flags().Int32Var(&leagueID, "league", 0, "local league id")
	matchups.Flags().IntVar(&week, "week", 0, "week to sync, 0 for the current week")

	var position string
	var count int
	freeAgents := &cobra.Command{
		Use:   "free-agents",
		Short: "Sync a league's free agents",
		RunE: run(func(ctx context.Context, ctrl controller.C) (any, error) {
			return ctrl.SyncFreeAgents(ctx, userID, leagueID, position, count)
		}),
	}
	freeAgents.Flags().Int32Var(&leagueID, "league", 0, "local league id")
	freeAgents.Flags().StringVar(&position, "position", "", "only this position, e.g. C or G")
	freeAgents.Flags().IntVar(&count, "count", 0, "how many players, 0 for the default")

	var teamID int32
	roster := &cobra.Command{
		Use:   "roster",
		Short: "Sync a team's roster",
		RunE: run(func(ctx context.Context, ctrl controller.C) (any, error) {
			return ctrl.SyncRoster(ctx, userID, teamID, week)
		}),
	}
	roster.Flags().Int32Var(&teamID, "team", 0, "local team id")
	roster.Flags().IntVar(&week, "week", 0, "week to sync, 0 for the current roster")

	for _, c := range []*cobra.Command{teams, matchups, freeAgents} {
		c.MarkFlagRequired("league")
	}
	roster.MarkFlagRequired("team")
	cmd.AddCommand(teams, matchups, freeAgents, roster)
	return cmd
}

func sessionTokenCmd(configPath *string) *cobra.Command {
	var userID string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "session-token",
		Short: "Sign an API session for a user, for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Server.SessionSecret == "" {
				return errors.New("SESSION_SECRET must be set")
			}
			tok, err := web.NewSessionToken([]byte(cfg.Server.SessionSecret), userID, time.Now(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "local user id")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "how long the session is valid")
	cmd.MarkFlagRequired("user")
	return cmd
}

func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) error {
	c := make(chan any)
	go func() {
		defer close(c)
		wg.Wait()
	}()

	select {
	case <-c:
		return nil // completed normally
	case <-time.After(timeout):
		return errors.New("timed out waiting")
	}
}
