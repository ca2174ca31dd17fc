package analytics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/posthog/posthog-go"
)

// Event names reported by the CLI.
const (
	GraphCommand       = "executed_graph_command"
	GraphCommandJSON   = "executed_graph_command_json_output"
	GraphCommandImage  = "executed_graph_command_image_output"
	VersionCommand     = "executed_version_command"
	ErrorBuildingGraph = "error_building_graph"
	ErrorWritingOutput = "error_writing_output"
)

var (
	// PublicKey is injected at build time; empty disables reporting.
	PublicKey     string
	enableMetrics bool
)

// Init enables or disables event reporting for this run.
func Init(disableMetrics bool) {
	enableMetrics = !disableMetrics
}

func envFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".codesense", ".env"), nil
}

func createEnvFile() {
	envFile, err := envFilePath()
	if err != nil {
		fmt.Println("Error getting user home directory:", err)
		return
	}
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(envFile), os.ModePerm); err != nil {
			fmt.Println("Error creating directory:", err)
			return
		}
		env := map[string]string{
			"uuid": uuid.New().String(),
		}
		if err := godotenv.Write(env, envFile); err != nil {
			fmt.Println("Error writing to .env file:", err)
		}
	}
}

// LoadEnvFile creates the anonymous identity file on first run and loads
// it into the environment.
func LoadEnvFile() {
	createEnvFile()
	envFile, err := envFilePath()
	if err != nil {
		return
	}
	_ = godotenv.Load(envFile)
}

// ReportEvent sends one usage event. A missing key or disabled metrics
// makes this a no-op.
func ReportEvent(event string) {
	if !enableMetrics || PublicKey == "" {
		return
	}
	client, err := posthog.NewWithConfig(
		PublicKey,
		posthog.Config{
			Endpoint: "https://us.i.posthog.com",
		},
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer client.Close()
	err = client.Enqueue(posthog.Capture{
		DistinctId: os.Getenv("uuid"),
		Event:      event,
	})
	if err != nil {
		fmt.Println(err)
	}
}
