//go:build integration

package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type Env struct {
	PG        *postgres.PostgresContainer
	Kafka     *kafka.KafkaContainer
	Redis     testcontainers.Container
	PGURL     string
	KAddr     []string
	RedisAddr string
}

func Setup(ctx context.Context) (env *Env, err error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	env = &Env{}
	defer func() {
		if err != nil {
			env.Teardown(context.Background())
			env = nil
		}
	}()

	env.PG, err = postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("sendpay"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return env, err
	}
	if env.PGURL, err = env.PG.ConnectionString(ctx, "sslmode=disable"); err != nil {
		return env, err
	}

	env.Kafka, err = kafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		kafka.WithClusterID("sendpay-test"),
	)
	if err != nil {
		return env, err
	}
	if env.KAddr, err = env.Kafka.Brokers(ctx); err != nil {
		return env, err
	}

	env.Redis, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		return env, err
	}
	host, err := env.Redis.Host(ctx)
	if err != nil {
		return env, err
	}
	port, err := env.Redis.MappedPort(ctx, "6379/tcp")
	if err != nil {
		return env, err
	}
	env.RedisAddr = fmt.Sprintf("%s:%s", host, port.Port())

	return env, nil
}

func (e *Env) Teardown(ctx context.Context) {
	if e.Redis != nil {
		_ = e.Redis.Terminate(ctx)
	}
	if e.Kafka != nil {
		_ = e.Kafka.Terminate(ctx)
	}
	if e.PG != nil {
		_ = e.PG.Terminate(ctx)
	}
}
