package internal

// Flags define the command line flags of the agent.
type Flags struct {
	// Config is the path to the YAML config file.
	Config string `short:"c" long:"config" description:"path to config file" required:"true" default:"./config.yml"`
}
