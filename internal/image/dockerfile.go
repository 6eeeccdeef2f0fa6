package image

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// siteStageBase is the minimal base for the intermediate site-build stage:
// only the source tree and the compiled generator are present in it.
const siteStageBase = "alpine:3.20"

// dockerfileTemplate renders the three-stage image definition.
//
// Stage 1 compiles the generator from the vendored source snapshot.
// Stage 2 runs the compiled generator against the bundled site tree in a
// minimal filesystem with no other tooling.
// Stage 3 layers only the rendered output onto the unmodified web-server
// base image: the final artifact is server plus static files, nothing else.
var dockerfileTemplate = template.Must(template.New("Dockerfile").Parse(`# Generated by sitedeploy; do not edit.
FROM {{.BuilderImage}} AS generator
COPY generator-src /src/generator
WORKDIR /src/generator
RUN go build -o /usr/local/bin/site-generator .

FROM {{.SiteStageBase}} AS sitebuild
COPY --from=generator /usr/local/bin/site-generator /usr/local/bin/site-generator
COPY site /site
WORKDIR /site
RUN /usr/local/bin/site-generator

FROM {{.ServerImage}}
COPY --from=sitebuild /site/{{.OutputDir}} {{.ServingDir}}
`))

// WriteDockerfileStep renders the Dockerfile into the build context.
type WriteDockerfileStep struct{}

func (s *WriteDockerfileStep) Name() string { return "write-dockerfile" }

func (s *WriteDockerfileStep) Run(_ context.Context, a *Assembly) error {
	if a.ContextDir == "" {
		return fmt.Errorf("build context not prepared")
	}
	if a.GeneratorSrcDir == "" {
		return fmt.Errorf("generator source not fetched")
	}

	content, err := RenderDockerfile(a)
	if err != nil {
		return err
	}

	path := filepath.Join(a.ContextDir, "Dockerfile")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write Dockerfile: %w", err)
	}
	a.DockerfilePath = path
	return nil
}

// RenderDockerfile produces the three-stage Dockerfile text for the assembly.
func RenderDockerfile(a *Assembly) (string, error) {
	outputDir := a.OutputDir
	if outputDir == "" {
		outputDir = "public"
	}
	var sb strings.Builder
	err := dockerfileTemplate.Execute(&sb, struct {
		BuilderImage  string
		SiteStageBase string
		ServerImage   string
		OutputDir     string
		ServingDir    string
	}{
		BuilderImage:  a.Config.BuilderImage,
		SiteStageBase: siteStageBase,
		ServerImage:   a.Config.ServerImage,
		OutputDir:     outputDir,
		ServingDir:    a.Config.ServingDir,
	})
	if err != nil {
		return "", fmt.Errorf("render Dockerfile: %w", err)
	}
	return sb.String(), nil
}
