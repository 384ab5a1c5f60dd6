package config

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Runtime is the bot's own configuration, distinct from the zone's INI
// settings: where to connect, which helper to use for security work, and
// how chatty to be.
type Runtime struct {
	Server struct {
		Host string `toml:"host"`
		Port int    `toml:"port"`
		Zone string `toml:"zone"`
	} `toml:"server"`
	Security struct {
		SolverAddr string `toml:"solver_addr"`
	} `toml:"security"`
	Telemetry struct {
		ListenAddr string `toml:"listen_addr"`
	} `toml:"telemetry"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// LoadRuntime reads and decodes a TOML runtime config file.
func LoadRuntime(path string) (*Runtime, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: read runtime config")
	}
	var rt Runtime
	if err := toml.Unmarshal(data, &rt); err != nil {
		return nil, errors.Wrap(err, "config: decode runtime config")
	}
	if rt.Server.Port == 0 {
		rt.Server.Port = 5000
	}
	return &rt, nil
}
