// Package config loads the bot's two configuration surfaces: its own
// runtime settings (TOML, runtime.go) and the zone's persisted INI-like
// settings file (this file). The two formats are deliberately not unified;
// the zone format has tokenization rules no general-purpose parser matches.
package config

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// INI holds a parsed zone settings file as (section, key) -> raw value.
// Keys are matched case-insensitively, the way the original client treats
// them.
type INI struct {
	sections map[string]map[string]string
}

// ParseINI tokenizes the INI-like format from spec §6: `[section]` headers,
// `key = value` lines, `#`-to-EOL comments. Keys and values are trimmed;
// keys may contain internal whitespace (tokens are coalesced until `=`);
// values run to end-of-line.
func ParseINI(data string) (*INI, error) {
	ini := &INI{sections: make(map[string]map[string]string)}
	section := ""

	for lineNo, line := range strings.Split(data, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			end := strings.IndexByte(line, ']')
			if end < 0 {
				return nil, errors.Errorf("config: line %d: unterminated section header", lineNo+1)
			}
			section = strings.ToLower(strings.TrimSpace(line[1:end]))
			if ini.sections[section] == nil {
				ini.sections[section] = make(map[string]string)
			}
			continue
		}

		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			// the original client skips stray lines instead of failing the
			// whole file
			continue
		}
		key := strings.ToLower(strings.Join(strings.Fields(line[:eq]), " "))
		value := strings.TrimSpace(line[eq+1:])
		if key == "" {
			continue
		}
		if ini.sections[section] == nil {
			ini.sections[section] = make(map[string]string)
		}
		ini.sections[section][key] = value
	}

	return ini, nil
}

// GetString returns the raw value for (section, key), or "" and false.
func (c *INI) GetString(section, key string) (string, bool) {
	s, ok := c.sections[strings.ToLower(section)]
	if !ok {
		return "", false
	}
	v, ok := s[strings.ToLower(key)]
	return v, ok
}

// GetInt returns the value for (section, key) parsed as an int; a missing
// key or unparsable value returns def.
func (c *INI) GetInt(section, key string, def int) int {
	v, ok := c.GetString(section, key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}
