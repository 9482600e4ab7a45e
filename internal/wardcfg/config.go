// Package wardcfg loads the supervisor's configuration file: endpoints,
// timeouts, runtimes, and the per-server descriptions. Parsing the file is
// intentionally simple — the config is immutable once loaded and shared
// by reference for the life of the process.
package wardcfg

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Runtime is the installed distribution of the child binary: the paths it
// needs for its system and library directories.
type Runtime struct {
	SystemDir string
	BinDir    string
}

// systemRuntime is what the literal runtime id "system" always resolves
// to, matching the platform-default install layout.
func systemRuntime() *Runtime {
	return &Runtime{
		SystemDir: "/usr/share/gameserver/",
		BinDir:    "/usr/share/gameserver/bin/",
	}
}

// ServerDescription is immutable after load and shared by reference
// between the supervisor core and the child runner / updater it spawns.
type ServerDescription struct {
	ID             string
	Runtime        *Runtime
	WorkDir        string
	BinaryArg      string
	Port           uint16
	UpdateCommands []string
}

// Config is immutable after load and shared by reference.
type Config struct {
	ServerEndpoint   string
	OperatorEndpoint string
	// StatusAddr is the listen address for the read-only status HTTP
	// surface (internal/statusapi) — an ambient operability concern with
	// no equivalent in spec.md §6's wire schema, defaulted when absent.
	StatusAddr string

	PingInterval time.Duration
	MaxLostPings int

	StartingTimeout time.Duration
	StoppingTimeout time.Duration

	Servers map[string]*ServerDescription
}

const defaultStatusAddr = ":8080"

// wireRuntime and wireServer mirror the on-disk JSON shape (spec.md §6)
// before assembly into the Runtime/ServerDescription types above.
type wireRuntime struct {
	SystemDir string `json:"system_dir"`
	BinDir    string `json:"bin_dir"`
}

type wireServer struct {
	Runtime        string   `json:"runtime"`
	WorkDir        string   `json:"work_dir"`
	Binary         string   `json:"binary"`
	Port           uint16   `json:"port"`
	UpdateCommands []string `json:"update_commands,omitempty"`
}

type wireConfig struct {
	ServerEndpoint   string                 `json:"server_endpoint"`
	OperatorEndpoint string                 `json:"operator_endpoint"`
	StatusAddr       string                 `json:"status_addr,omitempty"`
	PingInterval     float64                `json:"ping_interval"`
	MaxLostPings     int                    `json:"max_lost_pings"`
	StartingTimeout  float64                `json:"starting_timeout"`
	StoppingTimeout  float64                `json:"stopping_timeout"`
	Runtimes         map[string]wireRuntime `json:"runtimes"`
	Servers          map[string]wireServer  `json:"servers"`
}

// Load reads and assembles a Config from the JSON file at path. Like the
// teacher's loader, it refuses configs with group/other read permissions
// before touching their contents — a config holds endpoint addresses and
// filesystem paths an attacker would want to read.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return nil, fmt.Errorf("config file %s has insecure permissions %o (expected 0600)", path, perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var wire wireConfig
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	runtimes := make(map[string]*Runtime, len(wire.Runtimes)+1)
	for id, r := range wire.Runtimes {
		runtimes[id] = &Runtime{SystemDir: r.SystemDir, BinDir: r.BinDir}
	}
	runtimes["system"] = systemRuntime()

	servers := make(map[string]*ServerDescription, len(wire.Servers))
	for id, s := range wire.Servers {
		rt, ok := runtimes[s.Runtime]
		if !ok {
			return nil, fmt.Errorf("parse config %s: server %q references unknown runtime %q", path, id, s.Runtime)
		}
		servers[id] = &ServerDescription{
			ID:             id,
			Runtime:        rt,
			WorkDir:        s.WorkDir,
			BinaryArg:      s.Binary,
			Port:           s.Port,
			UpdateCommands: s.UpdateCommands,
		}
	}

	statusAddr := wire.StatusAddr
	if statusAddr == "" {
		statusAddr = defaultStatusAddr
	}

	return &Config{
		ServerEndpoint:   wire.ServerEndpoint,
		OperatorEndpoint: wire.OperatorEndpoint,
		StatusAddr:       statusAddr,
		PingInterval:     durationFromSeconds(wire.PingInterval),
		MaxLostPings:     wire.MaxLostPings,
		StartingTimeout:  durationFromSeconds(wire.StartingTimeout),
		StoppingTimeout:  durationFromSeconds(wire.StoppingTimeout),
		Servers:          servers,
	}, nil
}

func durationFromSeconds(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
