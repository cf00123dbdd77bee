// Package common provides shared test infrastructure.
package common

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Credentials and image pin for the throwaway test database. The root
// user only ever exists inside the container.
const (
	SurrealImage = "surrealdb/surrealdb:v3.0.0"
	SurrealUser  = "root"
	SurrealPass  = "root"

	surrealPort     = "8000/tcp"
	startupDeadline = 60 * time.Second
)

var (
	surrealOnce      sync.Once
	surrealContainer *SurrealDBContainer
	surrealError     error
)

// SurrealDBContainer wraps a testcontainers SurrealDB instance.
type SurrealDBContainer struct {
	container testcontainers.Container
	host      string
	port      string
}

// StartSurrealDB starts a shared SurrealDB container for the test run.
// Uses sync.Once so only one container is created per process.
func StartSurrealDB(t *testing.T) *SurrealDBContainer {
	t.Helper()

	surrealOnce.Do(func() {
		surrealContainer, surrealError = startSurrealDB(context.Background())
	})

	if surrealError != nil {
		t.Fatalf("SurrealDB container failed: %v", surrealError)
	}
	return surrealContainer
}

func startSurrealDB(ctx context.Context) (*SurrealDBContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        SurrealImage,
		ExposedPorts: []string{surrealPort},
		Cmd:          []string{"start", "--user", SurrealUser, "--pass", SurrealPass},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(surrealPort),
			wait.ForLog("Started web server"),
		).WithDeadline(startupDeadline),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start SurrealDB container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("get SurrealDB host: %w", err)
	}

	mappedPort, err := container.MappedPort(ctx, surrealPort)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("get SurrealDB port: %w", err)
	}

	return &SurrealDBContainer{
		container: container,
		host:      host,
		port:      mappedPort.Port(),
	}, nil
}

// Address returns the WebSocket RPC address for SurrealDB.
func (c *SurrealDBContainer) Address() string {
	return fmt.Sprintf("ws://%s:%s/rpc", c.host, c.port)
}

// SignInVars returns the root sign-in payload for the container.
func (c *SurrealDBContainer) SignInVars() map[string]interface{} {
	return map[string]interface{}{"user": SurrealUser, "pass": SurrealPass}
}

// Cleanup terminates the container. Call from TestMain if needed.
func (c *SurrealDBContainer) Cleanup() {
	if c != nil && c.container != nil {
		c.container.Terminate(context.Background())
	}
}
