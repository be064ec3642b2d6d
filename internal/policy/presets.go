package policy

import (
	"fmt"
	"sort"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

// presets are built-in blocklists, referenced by name from configuration.
var presets = map[string]BlocklistSpec{
	"steam": {
		Name: "steam",
		Processes: []string{
			"steam",
			"steamwebhelper",
			"steam_osx",
			"Steam Helper",
		},
		Paths: []string{
			// Native and Flatpak installs
			"~/.steam",
			"~/.local/share/Steam",
			"~/.var/app/com.valvesoftware.Steam",
			"~/Downloads/*[Ss]team*.deb",
			"~/Downloads/*[Ss]team*.tar.gz",
		},
	},
	"dota2": {
		Name: "dota2",
		Processes: []string{
			"dota2",
			"dota2_launcher",
		},
		Paths: []string{
			"~/.local/share/Steam/steamapps/common/dota 2 beta",
			"~/.local/share/Steam/steamapps/workshop/content/570",
			"~/.local/share/Steam/steamapps/shadercache/570",
			"~/.local/share/Steam/steamapps/downloading/570",
			"~/.local/share/Steam/steamapps/appmanifest_570.acf",
		},
	},
}

// PresetNames lists the built-in blocklists.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolvePreset merges the preset named by spec.Preset into spec.
// Entries in spec are kept and come first.
func ResolvePreset(spec BlocklistSpec) (BlocklistSpec, error) {
	if spec.Preset == "" {
		return spec, nil
	}
	preset, ok := presets[spec.Preset]
	if !ok {
		return spec, domain.NewConfigError("blocklist.preset", fmt.Sprintf("unknown preset %q", spec.Preset))
	}
	if spec.Name == "" {
		spec.Name = preset.Name
	}
	spec.Processes = concat(spec.Processes, preset.Processes)
	spec.Paths = concat(spec.Paths, preset.Paths)
	spec.Preset = ""
	return spec, nil
}
