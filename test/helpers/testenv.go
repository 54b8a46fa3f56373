// ABOUTME: TestEnv provides isolated test environments for acceptance tests
// ABOUTME: Creates a temp home directory and runs the clenv binary with CLENV_HOME pointing at it
package helpers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// SampleConfig is a small ClearML configuration in the form clearml-init writes
const SampleConfig = `# ClearML SDK configuration file
api {
    # Notice: 'host' is the api server (default port 8008), not the web server.
    web_server: https://app.clear.ml
    api_server: https://api.clear.ml
    files_server: https://files.clear.ml
    # Credentials are generated using the webapp, https://app.clear.ml/settings
    credentials {"access_key": "OLDKEY", "secret_key": "OLDSECRET"}
}
sdk {
    development {
        default_output_uri: ""
        task_reuse_time_window_in_hours: 72.0
    }
}
`

// TestEnv represents an isolated test environment
type TestEnv struct {
	HomeDir   string // Fake home directory holding clearml*.conf
	IndexFile string // <home>/.clenv-config-index.json
	StateDir  string // <home>/.clenv
	Binary    string // Path to clenv binary
}

// Result holds the outcome of a CLI invocation
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// NewTestEnv creates a new isolated test environment
func NewTestEnv(binary string) *TestEnv {
	home := GinkgoT().TempDir()
	return &TestEnv{
		HomeDir:   home,
		IndexFile: filepath.Join(home, ".clenv-config-index.json"),
		StateDir:  filepath.Join(home, ".clenv"),
		Binary:    binary,
	}
}

// Run executes the CLI with the given arguments
func (e *TestEnv) Run(args ...string) *Result {
	return e.RunWithInput("", args...)
}

// RunWithInput executes the CLI with stdin input
func (e *TestEnv) RunWithInput(input string, args ...string) *Result {
	cmd := exec.Command(e.Binary, args...)
	cmd.Env = append(os.Environ(),
		"CLENV_HOME="+e.HomeDir,
		"NO_COLOR=1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Stdin = strings.NewReader(input)

	err := cmd.Run()

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = 1
		}
	}

	return &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// ActivePath returns <home>/clearml.conf
func (e *TestEnv) ActivePath() string {
	return filepath.Join(e.HomeDir, "clearml.conf")
}

// ProfilePath returns <home>/clearml-<name>.conf
func (e *TestEnv) ProfilePath(name string) string {
	return filepath.Join(e.HomeDir, "clearml-"+name+".conf")
}

// WriteActive writes the active clearml.conf
func (e *TestEnv) WriteActive(content string) {
	Expect(os.WriteFile(e.ActivePath(), []byte(content), 0644)).To(Succeed())
}

// WriteProfile writes a stored profile file
func (e *TestEnv) WriteProfile(name, content string) {
	Expect(os.WriteFile(e.ProfilePath(name), []byte(content), 0644)).To(Succeed())
}

// ReadFile returns the content of a file under the home directory
func (e *TestEnv) ReadFile(name string) string {
	data, err := os.ReadFile(filepath.Join(e.HomeDir, name))
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}

// FileExists checks if a file exists under the home directory
func (e *TestEnv) FileExists(name string) bool {
	_, err := os.Stat(filepath.Join(e.HomeDir, name))
	return err == nil
}

// IndexEntry mirrors one profile entry of the index file
type IndexEntry struct {
	Name     string `json:"profile_name"`
	FilePath string `json:"file_path"`
}

// Index mirrors the index file layout
type Index struct {
	Profiles struct {
		Active    []IndexEntry `json:"active"`
		NonActive []IndexEntry `json:"non_active"`
	} `json:"profiles"`
}

// LoadIndex reads the index file
func (e *TestEnv) LoadIndex() Index {
	data, err := os.ReadFile(e.IndexFile)
	Expect(err).NotTo(HaveOccurred())

	var idx Index
	Expect(json.Unmarshal(data, &idx)).To(Succeed())
	return idx
}

// WriteIndex writes the index file directly, as an earlier run would have
func (e *TestEnv) WriteIndex(active []IndexEntry, nonActive []IndexEntry) {
	var idx Index
	idx.Profiles.Active = active
	idx.Profiles.NonActive = nonActive
	WriteJSON(e.IndexFile, idx)
}

// ActiveName returns the active profile's name from the index, or ""
func (e *TestEnv) ActiveName() string {
	idx := e.LoadIndex()
	if len(idx.Profiles.Active) == 0 {
		return ""
	}
	return idx.Profiles.Active[0].Name
}

// NonActiveNames returns the stored profile names from the index
func (e *TestEnv) NonActiveNames() []string {
	var names []string
	for _, p := range e.LoadIndex().Profiles.NonActive {
		names = append(names, p.Name)
	}
	return names
}

// BuildBinary builds the clenv binary and returns its path
func BuildBinary() string {
	binPath := filepath.Join(GinkgoT().TempDir(), "clenv")

	projectRoot, err := findProjectRoot()
	Expect(err).NotTo(HaveOccurred())

	sourcePath := filepath.Join(projectRoot, "cmd", "clenv")

	cmd := exec.Command("go", "build", "-o", binPath, sourcePath)
	cmd.Stderr = GinkgoWriter
	Expect(cmd.Run()).To(Succeed())
	return binPath
}

// findProjectRoot walks up the directory tree to find go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find go.mod in any parent directory")
		}
		dir = parent
	}
}

// WriteJSON writes data as JSON to the specified path
func WriteJSON(path string, data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	Expect(err).NotTo(HaveOccurred())
	Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
	Expect(os.WriteFile(path, jsonData, 0644)).To(Succeed())
}
