package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jayainhufs/coding-sam/internal/config"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the codingsam daemon in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		c := newClient()
		if c.healthy(cmd.Context()) {
			fmt.Fprintln(out, okStyle.Render("✓")+" Daemon is already running")
			return nil
		}

		dir, err := config.EnsureDir()
		if err != nil {
			return fmt.Errorf("setup config directory: %w", err)
		}

		binary, err := findDaemonBinary()
		if err != nil {
			return fmt.Errorf("find daemon binary: %w", err)
		}

		daemonCmd := exec.Command(binary)
		daemonCmd.Dir = dir
		configureDaemonProcess(daemonCmd)

		if err := daemonCmd.Start(); err != nil {
			return fmt.Errorf("start daemon: %w", err)
		}

		fmt.Fprint(out, "Starting daemon...")
		for i := 0; i < 30; i++ {
			time.Sleep(100 * time.Millisecond)
			if c.healthy(cmd.Context()) {
				fmt.Fprintln(out, " "+mark(true))
				fmt.Fprintf(out, "Daemon running at %s\n", c.base)
				return nil
			}
			fmt.Fprint(out, ".")
		}

		fmt.Fprintln(out, " "+mark(false))
		return fmt.Errorf("daemon failed to start (check logs with 'codingsam logs')")
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the codingsam daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		c := newClient()
		if !c.healthy(cmd.Context()) {
			fmt.Fprintln(out, "Daemon is not running")
			return nil
		}

		dir, err := config.Dir()
		if err != nil {
			return err
		}
		pid, err := readPID(filepath.Join(dir, pidFile))
		if err != nil {
			return err
		}

		process, err := os.FindProcess(pid)
		if err != nil {
			return fmt.Errorf("find process: %w", err)
		}

		fmt.Fprint(out, "Stopping daemon...")
		if err := process.Signal(syscall.SIGTERM); err != nil {
			return fmt.Errorf("send signal: %w", err)
		}

		for i := 0; i < 50; i++ {
			time.Sleep(100 * time.Millisecond)
			if !c.healthy(cmd.Context()) {
				fmt.Fprintln(out, " "+mark(true))
				return nil
			}
			fmt.Fprint(out, ".")
		}

		fmt.Fprintln(out, " "+mark(false))
		return fmt.Errorf("daemon did not stop gracefully")
	},
}

// daemonStatus is the /status response
type daemonStatus struct {
	Status          string   `json:"status"`
	Version         string   `json:"version"`
	LLMProviders    []string `json:"llm_providers"`
	DefaultProvider string   `json:"default_provider"`
	Runner          string   `json:"runner"`
	Storage         string   `json:"storage"`
	Queue           bool     `json:"queue"`
	Problems        int      `json:"problems"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		c := newClient()
		if !c.healthy(cmd.Context()) {
			fmt.Fprintln(out, renderKV("Status:", errStyle.Render("stopped")))
			return nil
		}

		var status daemonStatus
		if err := c.get(cmd.Context(), "/status", nil, &status); err != nil {
			return fmt.Errorf("get status: %w", err)
		}
		printStatus(out, c.base, status)
		return nil
	},
}

func printStatus(out io.Writer, addr string, status daemonStatus) {
	providers := "none (local fallback only)"
	if len(status.LLMProviders) > 0 {
		providers = strings.Join(status.LLMProviders, ", ")
		if status.DefaultProvider != "" {
			providers += " (default " + status.DefaultProvider + ")"
		}
	}
	queue := "off"
	if status.Queue {
		queue = "on"
	}

	fmt.Fprintln(out, renderKV("Status:", okStyle.Render(status.Status)))
	fmt.Fprintln(out, renderKV("Version:", status.Version))
	fmt.Fprintln(out, renderKV("Runner:", status.Runner))
	fmt.Fprintln(out, renderKV("Storage:", status.Storage))
	fmt.Fprintln(out, renderKV("Queue:", queue))
	fmt.Fprintln(out, renderKV("Problems:", status.Problems))
	fmt.Fprintln(out, renderKV("Providers:", providers))
	fmt.Fprintln(out, renderKV("Address:", addr))
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent daemon logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		return tailLog(cmd.OutOrStdout(), filepath.Join(dir, "logs", "codingsamd.log"), 4096)
	},
}

// tailLog prints roughly the last size bytes of path, starting at a line
func tailLog(out io.Writer, path string, size int64) error {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		fmt.Fprintln(out, "No log file found. Start the daemon first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	offset := max(info.Size()-size, 0)
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	if offset > 0 {
		_, _ = reader.ReadString('\n')
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fmt.Fprintln(out, scanner.Text())
	}
	return scanner.Err()
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse PID: %w", err)
	}
	return pid, nil
}

// findDaemonBinary locates the codingsamd binary
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath("codingsamd"); err == nil {
		return path, nil
	}

	if self, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(self), "codingsamd")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	for _, path := range []string{"/usr/local/bin/codingsamd", "./codingsamd"} {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("codingsamd binary not found (build with 'go build ./cmd/codingsamd')")
}
