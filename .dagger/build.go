package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/innerself/internal/dagger"
)

// Build returns a directory of innerself binaries for linux on amd64 and
// arm64. The sqlite driver needs cgo, so builds happen natively per arch.
func (m *InnerSelf) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	outputs := dag.Directory()

	for _, goarch := range []string{"amd64", "arm64"} {
		path := fmt.Sprintf("linux/%s/", goarch)

		build := dag.Container(dagger.ContainerOpts{Platform: dagger.Platform("linux/" + goarch)}).
			From("golang:1.25-bookworm").
			WithExec([]string{"apt-get", "update"}).
			WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
			WithEnvVariable("CGO_ENABLED", "1").
			WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod-"+goarch)).
			WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build-"+goarch)).
			WithDirectory("/src", m.Source).
			WithWorkdir("/src").
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/innerself"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (m *InnerSelf) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/innerself/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/innerself/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/innerself/pkg/utils.Buildtime=%s'", time.Now()),
	}

	return m.Build(ctx, strings.Join(ldflags, " "))
}
