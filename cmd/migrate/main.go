package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"layeredge/internal/datastore"
	"layeredge/internal/models"
	"layeredge/internal/services"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
			commandQuestMigration(),
			commandRecomputeRanks(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableUser(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableTweet(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTablePointsHistory(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableQuest(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableUserQuest(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableConfig(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

// insert default configs to db
func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name:        "migrate-config",
		Description: "Insert default configs to db",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			configs := []models.Config{
				{Key: services.CONFIG_SERVER_MODE, Value: "production"},
				{Key: services.CONFIG_LEADERBOARD_LIMIT, Value: "20"},
				{Key: services.CONFIG_RANK_CHUNK_SIZE, Value: "500"},
				{Key: services.CONFIG_REFRESH_WINDOW_SIZE, Value: "100"},
				{Key: services.CONFIG_REFRESH_API_MIN_POINTS, Value: "500"},
				{Key: services.CONFIG_REFRESH_API_SLOTS, Value: "20"},
				{Key: "CRONJOB_TIME_REFRESH", Value: "*/15 * * * *"},
				{Key: "CRONJOB_TIME_LEADERBOARD", Value: "@every 10m"},
			}

			for _, config := range configs {
				_, err = db.NewInsert().Model(&config).Exec(ctx)
				if err != nil {
					log.Println(err)
				}
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

// insert the default quest catalog
func commandQuestMigration() *cli.Command {
	return &cli.Command{
		Name:        "migrate-quests",
		Description: "Insert the default quest catalog",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			quests := []models.Quest{
				{
					Title:    "Follow LayerEdge on X",
					Type:     models.QuestTypeFollow,
					Points:   50,
					Link:     strptr("https://x.com/layeredge"),
					Enabled:  true,
					Priority: 1,
				},
				{
					Title:    "Join the LayerEdge Discord",
					Type:     models.QuestTypeJoin,
					Points:   50,
					Link:     strptr("https://discord.gg/layeredge"),
					Enabled:  true,
					Priority: 2,
				},
				{
					Title:    "Visit the LayerEdge docs",
					Type:     models.QuestTypeRedirect,
					Points:   20,
					Link:     strptr("https://docs.layeredge.io"),
					Enabled:  true,
					Priority: 3,
				},
				{
					Title:                "Post about $EDGEN",
					Type:                 models.QuestTypePost,
					Points:               100,
					Enabled:              true,
					Priority:             4,
					RequiresVerification: true,
				},
			}

			for _, quest := range quests {
				_, err = db.NewInsert().Model(&quest).Exec(ctx)
				if err != nil {
					log.Println(err)
				}
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

func commandRecomputeRanks() *cli.Command {
	return &cli.Command{
		Name:        "recompute-ranks",
		Description: "Recompute the dense rank column for every user",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "chunk",
				Value: 500,
			},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			count, err := datastore.RecomputeRanks(ctx, db, c.Int("chunk"))
			if err != nil {
				return err
			}

			fmt.Println("Ranks recomputed, users:", count)

			return nil
		},
	}
}

func strptr(s string) *string {
	return &s
}

func getDb() (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}
