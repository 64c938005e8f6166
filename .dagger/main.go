// InnerSelf CI
//
// Package main provides reproducible builds and tests locally and in CI.
package main

import (
	"context"

	"dagger/innerself/internal/dagger"
)

// InnerSelf is the main module for the innerself CI pipeline
type InnerSelf struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new InnerSelf CI module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *InnerSelf {
	return &InnerSelf{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc and
// libsqlite3-dev for the cgo sqlite driver.
func (m *InnerSelf) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", m.Source)
}

// Test runs the unit tests. Postgres-backed specs skip unless
// INNERSELF_TEST_POSTGRES_DSN is set.
func (m *InnerSelf) Test(ctx context.Context) (string, error) {
	return m.goContainer().
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}
