package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"

	"github.com/alfanzaky/proofanchor/config"
	redisrepo "github.com/alfanzaky/proofanchor/internal/repository/redis"
	"github.com/alfanzaky/proofanchor/internal/repository/postgres"
	"github.com/alfanzaky/proofanchor/internal/usecase"
	"github.com/alfanzaky/proofanchor/internal/domain"
	"github.com/alfanzaky/proofanchor/internal/worker"
	"github.com/alfanzaky/proofanchor/pkg/auth"
	"github.com/alfanzaky/proofanchor/pkg/logger"
)

// deps holds the connections a command needs.
type deps struct {
	cfg    *config.Config
	db     *sqlx.DB
	rdb    *redis.Client
	anchor *usecase.AnchorUsecase
	queue  *worker.QueueConsumer
}

func (d *deps) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}
	if d.rdb != nil {
		_ = d.rdb.Close()
	}
}

func openDeps(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisOpts, err := cfg.Redis.ClientOptions()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	queueRepo := redisrepo.NewQueueRepository(rdb, redisrepo.QueueKeys{
		Queue:      cfg.Queue.Key,
		Processing: cfg.Queue.ProcessingKey,
	})
	recordRepo := postgres.NewVerificationRecordRepository(db)

	return &deps{
		cfg:    cfg,
		db:     db,
		rdb:    rdb,
		anchor: usecase.NewAnchorUsecase(recordRepo, queueRepo),
		queue: worker.NewQueueConsumer(queueRepo, worker.QueueConsumerConfig{
			QueueName: cfg.Queue.Key,
		}),
	}, nil
}

func withDeps(action func(c *cli.Context, d *deps) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		d, err := openDeps(c.Context)
		if err != nil {
			return err
		}
		defer d.Close()
		defer logger.Sync()
		return action(c, d)
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

var submitCmd = &cli.Command{
	Name:  "submit",
	Usage: "create a pending verification record and enqueue its job",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "hash", Usage: "sha-256 digest as 64 hex characters"},
		&cli.StringFlag{Name: "file", Usage: "hash this file instead of passing --hash"},
		&cli.StringFlag{Name: "saved-parlay-id", Usage: "saved parlay the record belongs to"},
	},
	Action: withDeps(func(c *cli.Context, d *deps) error {
		hash, file := c.String("hash"), c.String("file")
		if (hash == "") == (file == "") {
			return cli.Exit("exactly one of --hash or --file is required", 2)
		}

		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			record, err := d.anchor.SubmitData(c.Context, c.String("saved-parlay-id"), data)
			if err != nil {
				return err
			}
			return printJSON(record)
		}

		record, err := d.anchor.Submit(c.Context, c.String("saved-parlay-id"), hash)
		if err != nil {
			return err
		}
		return printJSON(record)
	}),
}

var enqueueCmd = &cli.Command{
	Name:      "enqueue",
	Usage:     "enqueue a fresh verification job for a pending record",
	ArgsUsage: "<record-id>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "saved-parlay-id"},
	},
	Action: withDeps(func(c *cli.Context, d *deps) error {
		if c.NArg() != 1 {
			return cli.Exit("expected exactly one record id", 2)
		}
		job, err := d.anchor.Enqueue(c.Context, c.Args().First(), c.String("saved-parlay-id"))
		if err != nil {
			return err
		}
		return printJSON(job)
	}),
}

var statsCmd = &cli.Command{
	Name:  "stats",
	Usage: "show queue depth and record counts",
	Action: withDeps(func(c *cli.Context, d *deps) error {
		stats, err := d.anchor.Stats(c.Context)
		if err != nil {
			return err
		}
		return printJSON(stats)
	}),
}

var recoverCmd = &cli.Command{
	Name:  "recover",
	Usage: "move stranded jobs from the processing list back onto the queue",
	Description: "Only run this while no worker is consuming the queue: jobs a live " +
		"worker is processing would be delivered twice.",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "max", Value: 5000, Usage: "maximum number of jobs to move"},
		&cli.BoolFlag{Name: "yes", Usage: "confirm that no worker is running"},
	},
	Action: withDeps(func(c *cli.Context, d *deps) error {
		if !c.Bool("yes") {
			return cli.Exit("refusing to recover without --yes", 2)
		}
		moved, err := d.queue.RecoverOrphanedJobs(c.Context, c.Int("max"))
		if err != nil {
			return err
		}
		return printJSON(map[string]int{"moved": moved})
	}),
}

var tokenCmd = &cli.Command{
	Name:  "token",
	Usage: "mint a service token for the anchor API",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "subject", Required: true, Usage: "calling service name"},
		&cli.StringSliceFlag{
			Name:  "scope",
			Value: cli.NewStringSlice(domain.ScopeAnchorsRead, domain.ScopeAnchorsWrite),
			Usage: "scopes to grant",
		},
		&cli.DurationFlag{Name: "ttl", Usage: "token lifetime (default AUTH_TOKEN_TTL)"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		token, err := auth.NewJWTAuthService(cfg.Auth).
			GenerateServiceToken(c.String("subject"), c.StringSlice("scope"), c.Duration("ttl"))
		if err != nil {
			return err
		}

		fmt.Println(token)
		return nil
	},
}

func main() {
	app := &cli.App{
		Name:  "anchorctl",
		Usage: "operate the proof anchoring queue",
		Commands: []*cli.Command{
			submitCmd,
			enqueueCmd,
			statsCmd,
			recoverCmd,
			tokenCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
