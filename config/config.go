// Package config loads watcher configurations.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
	entity "github.com/rotenaple/ns-fischer/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSnapshotDir  = "./snapshot"
	DefaultSnapshotPath = DefaultSnapshotDir + "/auction_snapshot.json"
	DefaultConcurrency  = 1
)

var configExtensions = []string{".json", ".yaml", ".yml"}

// Config settings of one watcher.
type Config struct {
	Name          string
	WebhookURL    string
	Nations       []string
	UserAgent     string
	Debug         bool
	Mention       string
	NoPing        bool
	SnapshotPath  string
	CheckSnapshot bool
	Concurrency   int
}

// ConfigTmp raw config as written in the file.
type ConfigTmp struct {
	Name          string   `json:"name,omitempty" yaml:"name,omitempty"`
	WebhookURL    string   `json:"webhook_url" yaml:"webhook_url"`
	Nations       []string `json:"nations" yaml:"nations"`
	UserAgent     string   `json:"user_agent" yaml:"user_agent"`
	DebugMode     bool     `json:"debug_mode,omitempty" yaml:"debug_mode,omitempty"`
	Mention       string   `json:"mention,omitempty" yaml:"mention,omitempty"`
	NoPing        bool     `json:"no_ping,omitempty" yaml:"no_ping,omitempty"`
	SnapshotPath  string   `json:"snapshot_path,omitempty" yaml:"snapshot_path,omitempty"`
	CheckSnapshot bool     `json:"check_snapshot,omitempty" yaml:"check_snapshot,omitempty"`
	Concurrency   int      `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

// Entry one config found while loading. Err is set when the entry could not be
// parsed or failed validation; Config is then incomplete.
type Entry struct {
	Source string
	Config Config
	Err    error
}

// Valid returns the configs of entries that loaded without error.
func Valid(entries []Entry) []Config {
	var out []Config
	for _, e := range entries {
		if e.Err == nil {
			out = append(out, e.Config)
		}
	}
	return out
}

// Load reads configs from path, a file or a directory of .json, .yaml and .yml
// files. A file may hold one config object or a list of them. Problems with a
// single config are reported on its Entry; the error return is reserved for an
// unreadable path. Snapshot paths are resolved across everything loaded, see
// resolveSnapshotPaths.
func Load(path string) ([]Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config path %s", path)
	}

	if !info.IsDir() {
		return resolveSnapshotPaths(loadFile(path)), nil
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config dir %s", path)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !slices.Contains(configExtensions, strings.ToLower(filepath.Ext(de.Name()))) {
			continue
		}
		entries = append(entries, loadFile(filepath.Join(path, de.Name()))...)
	}

	if len(entries) == 0 {
		return nil, errors.Errorf("no config files found in %s", path)
	}

	return resolveSnapshotPaths(entries), nil
}

func loadFile(path string) []Entry {
	data, err := os.ReadFile(path)
	if err != nil {
		return []Entry{{Source: path, Err: errors.Wrap(err, "read config")}}
	}

	return parse(data, path)
}

// Parse decodes configs from data. source names the origin and provides the
// default config name; a .json source is decoded as JSON, anything else as YAML.
func Parse(data []byte, source string) []Entry {
	return resolveSnapshotPaths(parse(data, source))
}

func parse(data []byte, source string) []Entry {
	var (
		raws []ConfigTmp
		err  error
	)
	if strings.EqualFold(filepath.Ext(source), ".json") {
		raws, err = decodeJSON(data)
	} else {
		raws, err = decodeYAML(data)
	}
	if err != nil {
		return []Entry{{Source: source, Err: err}}
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	entries := make([]Entry, 0, len(raws))
	for i, raw := range raws {
		src := source
		name := base
		if len(raws) > 1 {
			src = fmt.Sprintf("%s#%d", source, i+1)
			name = fmt.Sprintf("%s-%d", base, i+1)
		}

		conf := raw.toConfig(name)
		entries = append(entries, Entry{Source: src, Config: conf, Err: conf.Validate()})
	}

	return entries
}

func decodeJSON(data []byte) ([]ConfigTmp, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("config is empty")
	}

	var raws []ConfigTmp
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, errors.Wrap(err, "decode config list")
		}
	case '{':
		var raw ConfigTmp
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, errors.Wrap(err, "decode config")
		}
		raws = append(raws, raw)
	default:
		return nil, errors.New("config must be an object or a list of objects")
	}

	return raws, nil
}

func decodeYAML(data []byte) ([]ConfigTmp, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("config is empty")
	}

	root := doc.Content[0]
	var raws []ConfigTmp
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&raws); err != nil {
			return nil, errors.Wrap(err, "decode config list")
		}
	case yaml.MappingNode:
		var raw ConfigTmp
		if err := root.Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "decode config")
		}
		raws = append(raws, raw)
	default:
		return nil, errors.New("config must be an object or a list of objects")
	}

	return raws, nil
}

// toConfig applies defaults. defaultName is used when the config has no name.
// The snapshot path is left to resolveSnapshotPaths.
func (t ConfigTmp) toConfig(defaultName string) Config {
	c := Config{
		Name:          strings.TrimSpace(t.Name),
		WebhookURL:    strings.TrimSpace(t.WebhookURL),
		UserAgent:     strings.TrimSpace(t.UserAgent),
		Debug:         t.DebugMode,
		Mention:       strings.TrimSpace(t.Mention),
		NoPing:        t.NoPing,
		SnapshotPath:  t.SnapshotPath,
		CheckSnapshot: t.CheckSnapshot,
		Concurrency:   t.Concurrency,
	}

	if c.Name == "" {
		c.Name = defaultName
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Mention == "" {
		c.NoPing = true
	}

	for _, n := range t.Nations {
		if n = strings.TrimSpace(n); n != "" {
			c.Nations = append(c.Nations, n)
		}
	}

	return c
}

// resolveSnapshotPaths fills in missing snapshot paths and rejects configs that
// would share a snapshot file. A lone config defaults to DefaultSnapshotPath;
// when several are loaded each defaults to a file named after the config.
func resolveSnapshotPaths(entries []Entry) []Entry {
	owners := make(map[string]string)
	for i := range entries {
		e := &entries[i]
		if e.Config.SnapshotPath == "" {
			e.Config.SnapshotPath = defaultSnapshotPath(e.Config.Name, len(entries))
		}
		if e.Err != nil {
			continue
		}

		key := filepath.Clean(e.Config.SnapshotPath)
		if owner, ok := owners[key]; ok {
			e.Err = errors.Errorf("snapshot_path %s is already used by config %s", e.Config.SnapshotPath, owner)
			continue
		}
		owners[key] = e.Config.Name
	}

	return entries
}

func defaultSnapshotPath(name string, configs int) string {
	if configs <= 1 {
		return DefaultSnapshotPath
	}

	slug := entity.NormalizeName(name)
	if slug == "" {
		slug = "config"
	}
	return DefaultSnapshotDir + "/" + slug + ".json"
}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return errors.New("webhook_url is required")
	}
	u, err := url.Parse(c.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf("webhook_url %q is not a valid http(s) URL", c.WebhookURL)
	}

	if len(c.Nations) == 0 {
		return errors.New("nations must list at least one nation")
	}

	if c.UserAgent == "" {
		return errors.New("user_agent is required")
	}

	if c.Concurrency < 1 {
		return errors.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}

	return nil
}

// ToTmp converts c back to its file form.
func (c Config) ToTmp() ConfigTmp {
	return ConfigTmp{
		Name:          c.Name,
		WebhookURL:    c.WebhookURL,
		Nations:       slices.Clone(c.Nations),
		UserAgent:     c.UserAgent,
		DebugMode:     c.Debug,
		Mention:       c.Mention,
		NoPing:        c.NoPing,
		SnapshotPath:  c.SnapshotPath,
		CheckSnapshot: c.CheckSnapshot,
		Concurrency:   c.Concurrency,
	}
}

// Encode renders configs in the format named by the extension of target: JSON
// for .json, YAML otherwise. A single config is written as an object.
func Encode(configs []ConfigTmp, target string) ([]byte, error) {
	var v any = configs
	if len(configs) == 1 {
		v = configs[0]
	}

	if strings.EqualFold(filepath.Ext(target), ".json") {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "encode config")
		}
		return append(data, '\n'), nil
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode config")
	}
	return data, nil
}
