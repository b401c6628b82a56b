package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/sender/pkg/errors"
	"github.com/ajitpratap0/sender/pkg/logger"
)

const (
	producerSection = "producer"
	senderSection   = "sender"

	// keyDelimiter keeps dotted Kafka property names intact inside viper.
	keyDelimiter = "::"
)

var envOverrides = map[string]string{
	"max_in_flight": "SENDER_MAX_IN_FLIGHT",
	"stop_on_error": "SENDER_STOP_ON_ERROR",
	"close_timeout": "SENDER_CLOSE_TIMEOUT",
}

// Load reads a sender configuration file. The format follows the file
// extension: yaml, yml, json, toml or properties.
func Load(filePath string) (*File, error) {
	format, err := formatOf(filePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read config file").
			WithDetail("path", filePath)
	}

	f, perr := parse(substituteEnvVars(string(data)), format)
	if perr != nil {
		return nil, perr.WithDetail("path", filePath)
	}
	f.Path = filePath

	logger.Debug("loaded sender config",
		zap.String("path", filePath),
		zap.String("format", format),
		zap.Int("properties", len(f.Producer)))
	return f, nil
}

// Parse reads configuration content in the given format.
func Parse(content, format string) (*File, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if _, ok := supportedFormats[format]; !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported config format %q", format)
	}
	f, err := parse(substituteEnvVars(content), format)
	if err != nil {
		return nil, err
	}
	return f, nil
}

var supportedFormats = map[string]string{
	"yaml":       "yaml",
	"yml":        "yaml",
	"json":       "json",
	"toml":       "toml",
	"properties": "properties",
}

func formatOf(filePath string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	format, ok := supportedFormats[ext]
	if !ok {
		return "", errors.Newf(errors.ErrorTypeConfig, "unsupported config file extension %q", ext).
			WithDetail("path", filePath)
	}
	return format, nil
}

func parse(content, format string) (*File, *errors.Error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetConfigType(supportedFormats[format])
	if err := v.ReadConfig(bytes.NewBufferString(content)); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse config").
			WithDetail("format", format)
	}

	f := &File{Format: supportedFormats[format], Producer: make(map[string]any)}
	if f.Format == "properties" {
		for _, key := range v.AllKeys() {
			f.Producer[propertyName(key)] = v.Get(key)
		}
		return f, nil
	}

	prefix := producerSection + keyDelimiter
	for _, key := range v.AllKeys() {
		if name, ok := strings.CutPrefix(key, prefix); ok {
			f.Producer[propertyName(name)] = v.Get(key)
		}
	}

	for name, env := range envOverrides {
		if err := v.BindEnv(senderSection+keyDelimiter+name, env); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to bind environment override")
		}
	}
	settings, err := readSenderSettings(v)
	if err != nil {
		return nil, err
	}
	f.Sender = settings
	return f, nil
}

// propertyName turns a nested viper path back into a dotted property name.
func propertyName(key string) string {
	return strings.ReplaceAll(key, keyDelimiter, ".")
}

func readSenderSettings(v *viper.Viper) (SenderSettings, *errors.Error) {
	var s SenderSettings
	key := func(name string) string { return senderSection + keyDelimiter + name }

	if v.IsSet(key("max_in_flight")) {
		n := v.GetInt(key("max_in_flight"))
		s.MaxInFlight = &n
	}
	if v.IsSet(key("stop_on_error")) {
		b := v.GetBool(key("stop_on_error"))
		s.StopOnError = &b
	}
	if v.IsSet(key("close_timeout")) {
		d, err := parseCloseTimeout(v.GetString(key("close_timeout")))
		if err != nil {
			return s, err
		}
		s.CloseTimeout = &d
	}
	return s, nil
}

// Save writes f as YAML to filePath.
func Save(filePath string, f *File) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write config file").
			WithDetail("path", filePath)
	}
	return nil
}

// Marshal renders f in the YAML layout Load reads.
func Marshal(f *File) ([]byte, error) {
	doc := yamlFile{Producer: f.Producer}
	if f.Sender.MaxInFlight != nil || f.Sender.StopOnError != nil || f.Sender.CloseTimeout != nil {
		s := &yamlSender{MaxInFlight: f.Sender.MaxInFlight, StopOnError: f.Sender.StopOnError}
		if f.Sender.CloseTimeout != nil {
			s.CloseTimeout = formatCloseTimeout(*f.Sender.CloseTimeout)
		}
		doc.Sender = s
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}
	return data, nil
}

type yamlFile struct {
	Producer map[string]any `yaml:"producer,omitempty"`
	Sender   *yamlSender    `yaml:"sender,omitempty"`
}

type yamlSender struct {
	MaxInFlight  *int   `yaml:"max_in_flight,omitempty"`
	StopOnError  *bool  `yaml:"stop_on_error,omitempty"`
	CloseTimeout string `yaml:"close_timeout,omitempty"`
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
