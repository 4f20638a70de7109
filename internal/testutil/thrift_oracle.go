package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const (
	envOracleBin           = "THRIFTFMT_ORACLE_BIN"
	envOracleVersionPrefix = "THRIFTFMT_ORACLE_VERSION_PREFIX"
	envOracleRequired      = "THRIFTFMT_ORACLE_REQUIRED"
)

// ThriftOracle runs the Apache `thrift` compiler to check that formatted
// output still parses.
type ThriftOracle struct {
	Bin           string
	VersionPrefix string
	Required      bool
}

// ThriftOracleFromEnv builds oracle configuration from environment variables.
func ThriftOracleFromEnv() ThriftOracle {
	bin := strings.TrimSpace(os.Getenv(envOracleBin))
	if bin == "" {
		bin = "thrift"
	}
	required := strings.TrimSpace(os.Getenv(envOracleRequired))
	return ThriftOracle{
		Bin:           bin,
		VersionPrefix: strings.TrimSpace(os.Getenv(envOracleVersionPrefix)),
		Required:      required == "1" || strings.EqualFold(required, "true"),
	}
}

// RequireThriftOracle returns a configured oracle or skips the test when unavailable.
func RequireThriftOracle(t testing.TB) ThriftOracle {
	t.Helper()

	oracle := ThriftOracleFromEnv()
	if err := oracle.CheckAvailability(context.Background()); err != nil {
		if oracle.Required {
			t.Fatalf("thrift oracle unavailable: %v", err)
		}
		t.Skipf("skipping thrift oracle test: %v", err)
	}
	return oracle
}

// CheckAvailability verifies the binary exists and matches the configured version prefix (if any).
func (o ThriftOracle) CheckAvailability(ctx context.Context) error {
	if _, err := exec.LookPath(o.Bin); err != nil {
		return fmt.Errorf("look up %q: %w", o.Bin, err)
	}
	if o.VersionPrefix == "" {
		return nil
	}

	version, err := o.Version(ctx)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(version, o.VersionPrefix) {
		return fmt.Errorf("oracle version %q does not match required prefix %q", version, o.VersionPrefix)
	}
	return nil
}

// Version returns `thrift -version` output.
func (o ThriftOracle) Version(ctx context.Context) (string, error) {
	//nolint:gosec // Test helper executes a configured local thrift binary.
	cmd := exec.CommandContext(ctx, o.Bin, "-version")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("run %s -version: %w (%s)", o.Bin, err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// ValidateSource writes src to a temporary file named name and validates it.
func (o ThriftOracle) ValidateSource(ctx context.Context, name string, src []byte) error {
	dir, err := os.MkdirTemp("", "thriftfmt-oracle-in-*")
	if err != nil {
		return fmt.Errorf("mkdir temp: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, src, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return o.ValidateFile(ctx, path)
}

// ValidateFile runs the Thrift compiler against path and returns an error on parse/generation failure.
func (o ThriftOracle) ValidateFile(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("empty path")
	}

	outDir, err := os.MkdirTemp("", "thriftfmt-oracle-out-*")
	if err != nil {
		return fmt.Errorf("mkdir temp: %w", err)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	// `--gen cpp` is only used as a parser; generated outputs are discarded.
	//nolint:gosec // Test helper executes a configured local thrift binary on a temporary fixture path.
	cmd := exec.CommandContext(ctx, o.Bin, "--gen", "cpp", "-out", outDir, filepath.Clean(path))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("thrift oracle validation failed: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}
