// Package policy implements the orchestrators the actor drives every
// tick: activities, flows, daily trackers and blocklist rules.
// Each is built from configuration and registered as a plugin class.
package policy

// ActivitySpec describes a named activity and the applications it allows.
type ActivitySpec struct {
	Name                string   `yaml:"name"`
	WhitelistedCommands []string `yaml:"whitelisted_commands"`
	WhitelistedTitles   []string `yaml:"whitelisted_titles"`
	BlacklistedCommands []string `yaml:"blacklisted_commands"`

	// Headline and Message form the notification shown when the activity
	// starts. An empty message shows nothing.
	Headline string `yaml:"headline"`
	Message  string `yaml:"message"`

	StartupCommands []string `yaml:"startup_commands"`
	DeletePaths     []string `yaml:"delete_paths"`
}

// FlowStep is one timed slot of a flow.
type FlowStep struct {
	Activity string `yaml:"activity"`
	Minutes  int    `yaml:"minutes"`
}

// FlowSpec is an ordered plan of activities.
type FlowSpec struct {
	Name  string     `yaml:"name"`
	Steps []FlowStep `yaml:"steps"`
}

// Tracker kinds.
const (
	TrackerInput = "input"
	TrackerYesNo = "yesno"
)

// TrackerSpec describes a value asked once a day.
type TrackerSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	// Availability is the HH:MM time of day from which the question is asked.
	Availability string `yaml:"availability"`
	Message      string `yaml:"message"`
}

// BlocklistSpec describes processes to kill and paths to delete on sight.
type BlocklistSpec struct {
	Name      string   `yaml:"name"`
	Preset    string   `yaml:"preset"`
	Processes []string `yaml:"processes"`
	Paths     []string `yaml:"paths"`
}

// Globals are allow-lists shared by every activity.
type Globals struct {
	WhitelistedCommands []string
	WhitelistedTitles   []string
	TerminalEmulators   []string
}

// Set is everything the policy package builds orchestrators from.
type Set struct {
	Globals    Globals
	Activities []ActivitySpec
	Flows      []FlowSpec
	Trackers   []TrackerSpec
	Blocklists []BlocklistSpec
}
