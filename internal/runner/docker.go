package runner

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

const (
	workDir   = "/workspace"
	stdinFile = "stdin.txt"

	// exit code reported when a stage hits the time limit
	timeoutExitCode = 124
)

// DockerConfig holds Docker executor configuration
type DockerConfig struct {
	Images     map[string]string // language -> image; missing entries use the defaults
	MemoryMB   int
	CPULimit   float64
	NetworkOff bool
	Timeout    time.Duration // per stage
}

// DockerExecutor runs each program in a throwaway container
type DockerExecutor struct {
	client    *client.Client
	cfg       DockerConfig
	languages map[domain.Language]LanguageConfig
}

// NewDockerExecutor creates a new Docker executor and checks the daemon is
// reachable
func NewDockerExecutor(cfg DockerConfig) (*DockerExecutor, error) {
	if cfg.MemoryMB == 0 {
		cfg.MemoryMB = 256
	}
	if cfg.CPULimit == 0 {
		cfg.CPULimit = 0.5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker not reachable: %w", err)
	}

	return &DockerExecutor{
		client:    cli,
		cfg:       cfg,
		languages: languagesWithImages(cfg.Images),
	}, nil
}

func languagesWithImages(images map[string]string) map[domain.Language]LanguageConfig {
	langs := DefaultLanguageConfigs()
	for lang, lc := range langs {
		if img := images[string(lang)]; img != "" {
			lc.DockerImage = img
			langs[lang] = lc
		}
	}
	return langs
}

func (e *DockerExecutor) Name() string {
	return "docker"
}

// Run copies the source and stdin into a fresh container, compiles if the
// language needs it and runs the program with stdin redirected
func (e *DockerExecutor) Run(ctx context.Context, req RunRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	lc := e.languages[req.Language]
	fileName, _ := req.Language.SourceFile()

	id, err := e.createContainer(ctx, req.Language, lc.DockerImage)
	if err != nil {
		return nil, err
	}
	defer e.destroyContainer(id)

	files := map[string]string{fileName: req.Source, stdinFile: req.Stdin}
	if err := e.copyFiles(ctx, id, files); err != nil {
		return nil, fmt.Errorf("copy files: %w", err)
	}

	result := &Result{Language: string(req.Language), Version: lc.DockerImage}

	if len(lc.CompileCmd) > 0 {
		stage, err := e.exec(ctx, id, lc.CompileCmd)
		if err != nil {
			return nil, fmt.Errorf("compile: %w", err)
		}
		result.Compile = stage
		if !stage.OK() {
			return result, nil
		}
	}

	stage, err := e.exec(ctx, id, withStdin(lc.RunCmd))
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	result.Run = *stage
	return result, nil
}

// withStdin wraps cmd in a shell that feeds it the stdin file
func withStdin(cmd []string) []string {
	return []string{"sh", "-c", "exec " + strings.Join(cmd, " ") + " < " + stdinFile}
}

// Close closes the Docker client
func (e *DockerExecutor) Close() error {
	return e.client.Close()
}

func (e *DockerExecutor) createContainer(ctx context.Context, lang domain.Language, img string) (string, error) {
	if err := e.ensureImage(ctx, img); err != nil {
		return "", fmt.Errorf("ensure image: %w", err)
	}

	containerCfg := &container.Config{
		Image:           img,
		Cmd:             []string{"sh", "-c", "while true; do sleep 3600; done"},
		WorkingDir:      workDir,
		NetworkDisabled: e.cfg.NetworkOff,
		Tty:             false,
		Labels: map[string]string{
			"codingsam.runner": "true",
			"codingsam.lang":   string(lang),
		},
	}

	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			Memory:   int64(e.cfg.MemoryMB) * 1024 * 1024,
			NanoCPUs: int64(e.cfg.CPULimit * 1e9),
		},
	}

	resp, err := e.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}

	if err := e.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = e.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return "", fmt.Errorf("start container: %w", err)
	}

	return resp.ID, nil
}

func (e *DockerExecutor) copyFiles(ctx context.Context, containerID string, files map[string]string) error {
	buf, err := tarFiles(files)
	if err != nil {
		return err
	}
	return e.client.CopyToContainer(ctx, containerID, workDir, buf, container.CopyToContainerOptions{})
}

func tarFiles(files map[string]string) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	for name, content := range files {
		header := &tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(header); err != nil {
			return nil, fmt.Errorf("write tar header: %w", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			return nil, fmt.Errorf("write tar content: %w", err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close tar: %w", err)
	}
	return &buf, nil
}

// exec runs cmd in the container, bounded by the stage timeout. A timeout is
// reported as a stage result with SIGKILL, not an error.
func (e *DockerExecutor) exec(ctx context.Context, containerID string, cmd []string) (*StageResult, error) {
	execCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	execResp, err := e.client.ContainerExecCreate(execCtx, containerID, container.ExecOptions{
		Cmd:          cmd,
		WorkingDir:   workDir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create exec: %w", err)
	}

	attachResp, err := e.client.ContainerExecAttach(execCtx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, fmt.Errorf("attach exec: %w", err)
	}
	defer attachResp.Close()

	var outBuf bytes.Buffer
	_, copyErr := io.Copy(&outBuf, io.LimitReader(attachResp.Reader, 1<<20))
	stdout, stderr := demuxOutput(outBuf.Bytes())

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		stage := newStage(stdout, stderr+"time limit exceeded\n", timeoutExitCode)
		stage.Signal = "SIGKILL"
		return &stage, nil
	}
	if copyErr != nil {
		return nil, fmt.Errorf("read output: %w", copyErr)
	}

	inspectResp, err := e.client.ContainerExecInspect(execCtx, execResp.ID)
	if err != nil {
		return nil, fmt.Errorf("inspect exec: %w", err)
	}

	stage := newStage(stdout, stderr, inspectResp.ExitCode)
	return &stage, nil
}

// destroyContainer removes the container with a fresh context so cleanup
// still happens after the request was cancelled
func (e *DockerExecutor) destroyContainer(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		slog.Warn("remove run container", "container", containerID, "error", err)
	}
}

func (e *DockerExecutor) ensureImage(ctx context.Context, img string) error {
	_, err := e.client.ImageInspect(ctx, img)
	if err == nil {
		return nil
	}

	reader, err := e.client.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", img, err)
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

// demuxOutput separates Docker multiplexed stdout/stderr streams.
// Each frame has an 8-byte header: [type][0][0][0][size1][size2][size3][size4]
// with type 1=stdout, 2=stderr.
func demuxOutput(data []byte) (stdout, stderr string) {
	var outBuf, errBuf strings.Builder

	for len(data) >= 8 {
		streamType := data[0]
		size := int(data[4])<<24 | int(data[5])<<16 | int(data[6])<<8 | int(data[7])
		data = data[8:]

		if size > len(data) {
			size = len(data)
		}

		chunk := string(data[:size])
		data = data[size:]

		switch streamType {
		case 1:
			outBuf.WriteString(chunk)
		case 2:
			errBuf.WriteString(chunk)
		}
	}

	if outBuf.Len() == 0 && errBuf.Len() == 0 && len(data) > 0 {
		return string(data), ""
	}

	return outBuf.String(), errBuf.String()
}
