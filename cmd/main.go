package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/rafata1/gocommerce/api"
	"github.com/rafata1/gocommerce/config"
	"github.com/rafata1/gocommerce/kafka"
	"github.com/rafata1/gocommerce/service/cart"
	"github.com/rafata1/gocommerce/service/catalog"
	"github.com/rafata1/gocommerce/service/identity"
	"github.com/rafata1/gocommerce/service/order"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const versionTimeFormat = "20060102150405"

const relayInterval = time.Second

func main() {
	rootCmd := &cobra.Command{}
	rootCmd.AddCommand(
		serveCommand(),
		createMigrationCommand(),
		migrateCommand(),
	)

	err := rootCmd.Execute()
	if err != nil {
		panic(err)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API, outbox relay and payment consumer",
		Run: func(cmd *cobra.Command, args []string) {
			conf := config.Load()

			db, err := sqlx.Connect("mysql", conf.DatabaseDSN)
			if err != nil {
				log.Fatalf("Failed to connect to database: %s", err)
			}

			producer, err := kafka.NewProducer(conf.KafkaHost, conf.OrderCreatedTopic)
			if err != nil {
				log.Fatalf("Failed to create producer: %s", err)
			}
			paymentConsumer, err := kafka.NewConsumer(conf.KafkaHost, conf.PaymentEventTopic)
			if err != nil {
				log.Fatalf("Failed to create consumer: %s", err)
			}

			identitySvc := identity.NewService(identity.NewRepo(db), conf.JWTSecret, conf.JWTExpiry)
			catalogSvc := catalog.NewService(catalog.NewRepo(db))
			cartSvc := cart.NewService(cart.NewRepo(db))
			orderSvc := order.NewService(order.NewRepo(db), producer, paymentConsumer)

			router := api.NewRouter(identitySvc, catalogSvc, cartSvc, orderSvc)

			group, ctx := errgroup.WithContext(context.Background())

			group.Go(func() error {
				log.Printf("Listening on %s", conf.HTTPAddr)
				return http.ListenAndServe(conf.HTTPAddr, router)
			})

			group.Go(func() error {
				ticker := time.NewTicker(relayInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-ticker.C:
						if err := orderSvc.RelayMessages(ctx, conf.OutboxRelayLimit); err != nil {
							log.Printf("Failed to relay outbox: %s", err)
						}
					}
				}
			})

			group.Go(func() error {
				orderSvc.ConsumePaymentEvents(ctx, 0)
				return nil
			})

			if err := group.Wait(); err != nil {
				log.Fatalf("Server stopped: %s", err)
			}
		},
	}
}

func createMigrationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-create [name]",
		Short: "create sql migrations",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			now := time.Now()
			version := now.Format(versionTimeFormat)
			name := args[0]
			migrationDir := config.Load().MigrationDir
			up := fmt.Sprintf("%s/%s_%s.up.sql", migrationDir, version, name)
			down := fmt.Sprintf("%s/%s_%s.down.sql", migrationDir, version, name)

			err := os.WriteFile(up, []byte{}, 0644)
			if err != nil {
				panic(err)
			}

			err = os.WriteFile(down, []byte{}, 0644)
			if err != nil {
				panic(err)
			}

			fmt.Println("Created SQL up script:", up)
			fmt.Println("Created SQL down script:", down)
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-up",
		Short: "migrate all the way up",
		Run: func(cmd *cobra.Command, args []string) {
			conf := config.Load()
			m, err := migrate.New(
				fmt.Sprintf("file://%s", conf.MigrationDir),
				fmt.Sprintf("mysql://%s", conf.DatabaseDSN),
			)
			if err != nil {
				panic(err)
			}

			err = m.Up()
			if err == migrate.ErrNoChange {
				fmt.Println("No change in migration")
				return
			}
			if err != nil {
				panic(err)
			}
			fmt.Println("Migrated up")
		},
	}
}
