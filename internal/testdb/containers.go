// Package testdb starts disposable database servers in docker for integration tests and
// local development. Expects the DB_* environment variables, or their defaults.
package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/localnerve/jam-build-contentdb/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultDatabase     = "contentdb"
	defaultUser         = "contentdb"
	defaultPassword     = "contentdb"
	defaultRootPassword = "root"
)

// Containers holds a running database container and the configuration that reaches it
// from the host.
type Containers struct {
	DBContainer testcontainers.Container
	Config      *config.Config
}

// Terminate stops the database container. t may be nil outside of tests.
func (tc *Containers) Terminate(t *testing.T) {
	if tc.DBContainer == nil {
		return
	}
	if err := tc.DBContainer.Terminate(context.Background()); err != nil {
		logMessage(t, "Failed to terminate database: %v", err)
	}
}

// DockerAvailable reports whether a docker daemon answers on the environment's socket.
func DockerAvailable(ctx context.Context) bool {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err = cli.Ping(ctx)
	return err == nil
}

// Start runs a database server of dbType, postgres or mariadb, and waits until it
// accepts connections. t may be nil outside of tests.
func Start(ctx context.Context, t *testing.T, dbType string) (*Containers, error) {
	tc := &Containers{}

	image, port, env, waitFor, err := containerSpec(dbType)
	if err != nil {
		return nil, err
	}
	tcpDbPort, err := nat.NewPort("tcp", port)
	if err != nil {
		return nil, fmt.Errorf("failed to create DB port: %w", err)
	}

	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{string(tcpDbPort)},
			Env:          env,
			WaitingFor: wait.ForAll(
				waitFor,
				wait.ForListeningPort(tcpDbPort),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", dbType, err)
	}
	tc.DBContainer = dbContainer

	dbHost, err := dbContainer.Host(ctx)
	if err != nil {
		tc.Terminate(t)
		return nil, fmt.Errorf("failed to get database host: %w", err)
	}
	dbPort, err := dbContainer.MappedPort(ctx, tcpDbPort)
	if err != nil {
		tc.Terminate(t)
		return nil, fmt.Errorf("failed to get database port: %w", err)
	}

	tc.Config = &config.Config{
		Port:              getEnv("PORT", "3000"),
		DBType:            dbType,
		DBHost:            dbHost,
		DBPort:            dbPort.Port(),
		DBDatabase:        getEnv("DB_DATABASE", defaultDatabase),
		DBUser:            getEnv("DB_USER", defaultUser),
		DBPassword:        getEnv("DB_PASSWORD", defaultPassword),
		DBConnectionLimit: 5,
		LogLevel:          "info",
		PageSizeDefault:   20,
		PageSizeMax:       100,
		InsertBatchSize:   200,
	}

	if dbType == "mariadb" || dbType == "mysql" {
		if err := performMySQLInit(tc.Config, dbHost, dbPort); err != nil {
			tc.Terminate(t)
			return nil, err
		}
	}

	logMessage(t, "DB_TYPE=%s DB_HOST=%s DB_PORT=%s", dbType, dbHost, dbPort.Port())
	return tc, nil
}

func containerSpec(dbType string) (image, port string, env map[string]string, waitFor wait.Strategy, err error) {
	database := getEnv("DB_DATABASE", defaultDatabase)
	user := getEnv("DB_USER", defaultUser)
	password := getEnv("DB_PASSWORD", defaultPassword)

	switch dbType {
	case "postgres":
		env = map[string]string{
			"POSTGRES_PASSWORD": password,
			"POSTGRES_USER":     user,
			"POSTGRES_DB":       database,
		}
		waitFor = wait.ForLog("database system is ready to accept connections").WithOccurrence(2)
		return getEnv("DB_IMAGE", "postgres:17-alpine"), "5432", env, waitFor, nil
	case "mariadb", "mysql":
		env = map[string]string{
			"MARIADB_ROOT_PASSWORD": getEnv("DB_ROOT_PASSWORD", defaultRootPassword),
			"MARIADB_DATABASE":      database,
			"MARIADB_USER":          user,
			"MARIADB_PASSWORD":      password,
		}
		waitFor = wait.ForLog("ready for connections")
		return getEnv("DB_IMAGE", "mariadb:11"), "3306", env, waitFor, nil
	}
	return "", "", nil, nil, fmt.Errorf("no container image for DB_TYPE %s", dbType)
}

// performMySQLInit sets the database character set so localized text round trips.
func performMySQLInit(cfg *config.Config, dbHost string, dbPort nat.Port) error {
	db, err := sql.Open("mysql", fmt.Sprintf("root:%s@tcp(%s:%s)/",
		getEnv("DB_ROOT_PASSWORD", defaultRootPassword), dbHost, dbPort.Port()))
	if err != nil {
		return fmt.Errorf("failed to connect to MariaDB for setup: %w", err)
	}
	defer db.Close()

	// Wait for connection to be really ready
	for i := 0; i < 30; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		return fmt.Errorf("MariaDB not ready after 30 seconds: %w", err)
	}

	statements := []string{
		fmt.Sprintf("ALTER DATABASE `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", cfg.DBDatabase),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON `%s`.* TO '%s'@'%%'", cfg.DBDatabase, cfg.DBUser),
		"FLUSH PRIVILEGES",
	}
	for _, q := range statements {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("%s : when executing > %s", err.Error(), q)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
