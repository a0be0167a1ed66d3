//go:build integration

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mobil-koeln/sunmap/internal/testutil"
)

var binaryPath string

// TestMain builds the binary before running tests
func TestMain(m *testing.M) {
	// Build the binary
	binaryPath = filepath.Join(os.TempDir(), "sunmap-test")
	build := exec.Command("go", "build", "-o", binaryPath, ".")
	if err := build.Run(); err != nil {
		os.Exit(1)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	_ = os.Remove(binaryPath)
	os.Exit(code)
}

// upstreamEnv points the binary at a local mock of both upstreams.
func upstreamEnv(t *testing.T, handler http.HandlerFunc) []string {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return append(os.Environ(),
		"SUNMAP_GEOCODING_URL="+ts.URL+testutil.GeocodingPath,
		"SUNMAP_SUNRISE_SUNSET_URL="+ts.URL+testutil.SunriseSunsetPath,
		"SUNMAP_NO_CACHE=true",
		"XDG_CACHE_HOME="+t.TempDir(),
	)
}

func runCommand(t *testing.T, env []string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = env
	// keep a .env in the working tree out of the test
	cmd.Dir = t.TempDir()

	stdout, err := cmd.Output()
	stderr := ""
	exitCode := 0

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
			stderr = string(exitErr.Stderr)
		}
	}

	return string(stdout), stderr, exitCode
}

func TestCLI_Version(t *testing.T) {
	stdout, _, exitCode := runCommand(t, nil, "--version")

	if exitCode != 0 {
		t.Errorf("Expected exit code 0, got %d", exitCode)
	}

	if !strings.Contains(stdout, "sunmap version") {
		t.Errorf("Expected version output, got: %s", stdout)
	}
}

func TestCLI_Help(t *testing.T) {
	stdout, _, exitCode := runCommand(t, nil, "--help")

	if exitCode != 0 {
		t.Errorf("Expected exit code 0, got %d", exitCode)
	}

	if !strings.Contains(stdout, "sunmap shows the address of a point") {
		t.Errorf("Expected help text, got: %s", stdout)
	}

	// Check that all commands are listed
	commands := []string{"lookup", "serve", "cache", "tui"}
	for _, cmd := range commands {
		if !strings.Contains(stdout, cmd) {
			t.Errorf("Expected command '%s' in help output", cmd)
		}
	}
}

func TestCLI_LookupCommand_MissingPoint(t *testing.T) {
	_, _, exitCode := runCommand(t, nil, "lookup")

	if exitCode == 0 {
		t.Error("Expected non-zero exit code for missing point")
	}
}

func TestCLI_LookupCommand_InvalidCoordinates(t *testing.T) {
	_, stderr, exitCode := runCommand(t, nil, "lookup", "north:pole")

	if exitCode == 0 {
		t.Error("Expected non-zero exit code for invalid coordinates")
	}
	if !strings.Contains(stderr, "invalid latitude") {
		t.Errorf("Expected latitude error, got: %s", stderr)
	}
}

func TestCLI_LookupCommand_Text(t *testing.T) {
	env := upstreamEnv(t, testutil.Upstreams(
		testutil.JSONHandler(http.StatusOK, testutil.SampleGeocodingResponse),
		testutil.JSONHandler(http.StatusOK, testutil.SampleSunriseSunsetResponse),
	))

	stdout, stderr, exitCode := runCommand(t, env, "lookup", "13.41:122.56", "--color", "never")

	if exitCode != 0 {
		t.Fatalf("Expected exit code 0, got %d: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "Pili, Camarines Sur") {
		t.Errorf("Expected address in output, got: %s", stdout)
	}
}

func TestCLI_LookupCommand_JSONOutput(t *testing.T) {
	env := upstreamEnv(t, testutil.Upstreams(
		testutil.JSONHandler(http.StatusOK, testutil.SampleGeocodingResponse),
		testutil.JSONHandler(http.StatusOK, testutil.SampleSunriseSunsetResponse),
	))

	stdout, stderr, exitCode := runCommand(t, env, "lookup", "13.41:122.56", "--json")

	if exitCode != 0 {
		t.Fatalf("Expected exit code 0, got %d: %s", exitCode, stderr)
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Errorf("Expected valid JSON output, got error: %v", err)
	}
	if result["address"] != "Pili, Camarines Sur" {
		t.Errorf("Expected address field, got: %v", result)
	}
}

func TestCLI_LookupCommand_Fallback(t *testing.T) {
	env := upstreamEnv(t, testutil.Upstreams(
		testutil.JSONHandler(http.StatusOK, testutil.SampleGeocodingResponse),
		testutil.JSONHandler(http.StatusInternalServerError, testutil.SampleErrorResponse),
	))

	stdout, stderr, exitCode := runCommand(t, env, "lookup", "13.41:122.56", "--color", "never")

	if exitCode != 1 {
		t.Errorf("Expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(stdout, "We have experienced some issues please try again later.") {
		t.Errorf("Expected fallback message, got: %s", stdout)
	}
	if strings.Contains(stderr, "selection failed") {
		t.Errorf("Fallback should not print an error, got: %s", stderr)
	}
}

func TestCLI_LookupCommand_ExclusiveFlags(t *testing.T) {
	_, _, exitCode := runCommand(t, nil, "lookup", "1:2", "--json", "--html")

	if exitCode == 0 {
		t.Error("Expected non-zero exit code for --json with --html")
	}
}

func TestCLI_CacheCommands(t *testing.T) {
	env := upstreamEnv(t, testutil.JSONHandler(http.StatusOK, testutil.SampleEmptyResponse))

	for _, sub := range []string{"clear", "cleanup"} {
		stdout, stderr, exitCode := runCommand(t, env, "cache", sub)
		if exitCode != 0 {
			t.Errorf("cache %s: expected exit code 0, got %d: %s", sub, exitCode, stderr)
		}
		if !strings.Contains(stdout, "Removed 0") {
			t.Errorf("cache %s: unexpected output: %s", sub, stdout)
		}
	}
}

func TestCLI_InvalidConfig(t *testing.T) {
	env := append(os.Environ(), "SUNMAP_HTTP_TIMEOUT=soon")

	_, stderr, exitCode := runCommand(t, env, "lookup", "1:2")

	if exitCode == 0 {
		t.Error("Expected non-zero exit code for invalid config")
	}
	if !strings.Contains(stderr, "SUNMAP_HTTP_TIMEOUT") {
		t.Errorf("Expected config key in error, got: %s", stderr)
	}
}

func TestCLI_InvalidCommand(t *testing.T) {
	_, _, exitCode := runCommand(t, nil, "invalidcommand")

	if exitCode == 0 {
		t.Error("Expected non-zero exit code for invalid command")
	}
}
