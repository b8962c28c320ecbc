package shapegen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"printforge/internal/docker"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
)

// Mount points inside the generation container.
const (
	containerInputDir  = "/input"
	containerOutputDir = "/output"
	containerModelDir  = "/model"
)

const dockerReadyTimeout = 30 * time.Second

// DockerPipeline runs the model inside a container image that bundles the
// pretrained pipeline and its GPU runtime.
type DockerPipeline struct {
	Client  client.APIClient
	Image   string
	Command []string
}

// NewDockerPipeline connects to the Docker daemon from the environment.
func NewDockerPipeline(image string, command []string) (*DockerPipeline, error) {
	cli, err := docker.NewClient()
	if err != nil {
		return nil, err
	}
	return &DockerPipeline{Client: cli, Image: image, Command: command}, nil
}

func (p *DockerPipeline) Run(ctx context.Context, req Request) ([]Candidate, error) {
	log := slog.With("component", "shapegen", "run_id", req.RunID)

	readyCtx, cancel := context.WithTimeout(ctx, dockerReadyTimeout)
	err := docker.WaitReady(readyCtx, p.Client)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("docker daemon not ready: %w", err)
	}

	cc, hc, err := containerSpec(p.Image, p.Command, req)
	if err != nil {
		return nil, err
	}
	name := "printforge-gen-" + req.RunID

	log.Debug("Starting generation container.", "container", name, "image", p.Image, "cmd", cc.Cmd)
	if err := docker.CreateAndStart(ctx, p.Client, name, cc, hc); err != nil {
		return nil, err
	}
	defer func() {
		if err := docker.Remove(context.WithoutCancel(ctx), p.Client, name); err != nil {
			log.Warn("Remove generation container failed.", "container", name, "err", err)
		}
	}()

	code, err := docker.Wait(ctx, p.Client, name)
	if err != nil {
		return nil, err
	}
	if code != 0 {
		_, stderr, logErr := docker.Logs(ctx, p.Client, name)
		if logErr != nil || stderr == "" {
			return nil, fmt.Errorf("container %s exited with code %d", name, code)
		}
		return nil, fmt.Errorf("container %s exited with code %d: %s", name, code, stderr)
	}

	candidates, err := collectCandidates(req.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("collect meshes: %w", err)
	}
	return candidates, nil
}

// Close releases the Docker client.
func (p *DockerPipeline) Close() error {
	if c, ok := p.Client.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// containerSpec binds the image directory read-only, the scratch directory
// read-write and a local model cache read-only, and rewrites the command
// placeholders to the container-side paths.
func containerSpec(image string, tmpl []string, req Request) (*container.Config, *container.HostConfig, error) {
	imageAbs, err := filepath.Abs(req.Image)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve image path: %w", err)
	}
	outputAbs, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve output path: %w", err)
	}

	mounts := []mount.Mount{
		{Type: mount.TypeBind, Source: filepath.Dir(imageAbs), Target: containerInputDir, ReadOnly: true},
		{Type: mount.TypeBind, Source: outputAbs, Target: containerOutputDir},
	}
	model := req.Model.Location
	if req.Model.Local {
		modelAbs, err := filepath.Abs(req.Model.Location)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve model path: %w", err)
		}
		mounts = append(mounts, mount.Mount{Type: mount.TypeBind, Source: modelAbs, Target: containerModelDir, ReadOnly: true})
		model = containerModelDir
	}

	inImage := containerInputDir + "/" + filepath.Base(imageAbs)
	cc := &container.Config{
		Image: image,
		Cmd:   expandCommand(tmpl, model, inImage, containerOutputDir),
		Labels: map[string]string{
			"printforge.run_id": req.RunID,
		},
		User: hostUser(),
	}
	hc := &container.HostConfig{Mounts: mounts}
	return cc, hc, nil
}

// hostUser runs the container as the invoking user so files written to the
// output mount can be removed afterwards. Empty where uids don't exist.
func hostUser() string {
	uid, gid := os.Getuid(), os.Getgid()
	if uid < 0 || gid < 0 {
		return ""
	}
	return strconv.Itoa(uid) + ":" + strconv.Itoa(gid)
}
