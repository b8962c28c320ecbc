// Package docker runs one-shot containers through the Docker Engine API.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// NewClient creates a Docker client from the environment.
func NewClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return cli, nil
}

// CreateAndStart creates a container and starts it. If the image is not
// found locally, it pulls the image and retries the create.
func CreateAndStart(
	ctx context.Context,
	docker client.APIClient,
	name string,
	containerCfg *container.Config,
	hostCfg *container.HostConfig,
) error {
	_, err := docker.ContainerCreate(ctx, containerCfg, hostCfg, nil, (*ocispec.Platform)(nil), name)
	if err != nil {
		if !errdefs.IsNotFound(err) {
			return fmt.Errorf("create container: %w", err)
		}
		if err := PullImage(ctx, docker, containerCfg.Image); err != nil {
			return err
		}
		if _, err = docker.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, name); err != nil {
			return fmt.Errorf("create container after pull: %w", err)
		}
	}

	if err := docker.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container: %w", err)
	}
	return nil
}

// PullImage pulls an image and drains the response to completion.
func PullImage(ctx context.Context, docker client.APIClient, img string) error {
	slog.Info("Pulling image.", "component", "docker", "image", img)
	resp, err := docker.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", img, err)
	}
	defer resp.Close()
	if _, err := io.Copy(io.Discard, resp); err != nil {
		return fmt.Errorf("pull image %s: read response: %w", img, err)
	}
	return nil
}

// Wait blocks until the container stops and returns its exit code.
func Wait(ctx context.Context, docker client.APIClient, name string) (int64, error) {
	statusCh, errCh := docker.ContainerWait(ctx, name, container.WaitConditionNotRunning)
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case err := <-errCh:
		if err != nil {
			return 0, fmt.Errorf("wait container %s: %w", name, err)
		}
		return 0, fmt.Errorf("wait container %s: closed without status", name)
	case status := <-statusCh:
		if status.Error != nil && status.Error.Message != "" {
			return status.StatusCode, fmt.Errorf("wait container %s: %s", name, status.Error.Message)
		}
		return status.StatusCode, nil
	}
}

// Logs returns the container's stdout and stderr, demultiplexed.
func Logs(ctx context.Context, docker client.APIClient, name string) (stdout, stderr string, err error) {
	rc, err := docker.ContainerLogs(ctx, name, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return "", "", fmt.Errorf("container logs %s: %w", name, err)
	}
	defer rc.Close()

	var outBuf, errBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&outBuf, &errBuf, rc); err != nil {
		return "", "", fmt.Errorf("read container logs %s: %w", name, err)
	}
	return strings.TrimSpace(outBuf.String()), strings.TrimSpace(errBuf.String()), nil
}

// Remove force-removes a container. NotFound is ignored.
func Remove(ctx context.Context, docker client.APIClient, name string) error {
	if err := docker.ContainerRemove(ctx, name, container.RemoveOptions{Force: true}); err != nil {
		if !errdefs.IsNotFound(err) {
			return fmt.Errorf("remove container %s: %w", name, err)
		}
	}
	return nil
}
