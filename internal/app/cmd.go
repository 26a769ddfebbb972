package app

// Command selects the application start mode.
type Command string

const (
	// CommandServe starts the API server.
	CommandServe Command = "serve"
	// CommandWorker starts the background worker (Google re-sync and
	// event cleanup).
	CommandWorker Command = "worker"
	// CommandMigrate applies the pending database migrations.
	CommandMigrate Command = "migrate"
	// CommandHealthcheck probes the running server. Used as the Docker
	// health check in distroless images.
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand parses the subcommand from the command line arguments.
// Empty or unknown arguments fall back to CommandServe.
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "worker":
		return CommandWorker
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
