package requestconfig

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
)

// DefaultPath is where the config builder writes the descriptor.
const DefaultPath = "./request-config.yaml"

// Store persists a request descriptor as YAML. Secret values never reach
// disk, only their names.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path of the descriptor file.
func (s *Store) Path() string {
	return s.path
}

// document is the on-disk representation of entity.RequestConfig.
type document struct {
	Source             string   `yaml:"source"`
	CodeLocation       string   `yaml:"code_location"`
	SecretsLocation    string   `yaml:"secrets_location"`
	CodeLanguage       string   `yaml:"code_language"`
	ExpectedReturnType string   `yaml:"expected_return_type"`
	Args               []string `yaml:"args"`
	Secrets            []string `yaml:"secrets,omitempty"`
}

// Load reads the descriptor. Secrets come back with empty values, callers
// resolve them from the environment.
func (s *Store) Load() (entity.RequestConfig, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		return entity.RequestConfig{}, errors.Wrap(err, "read request config")
	}

	var doc document
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return entity.RequestConfig{}, errors.Wrap(err, "decode request config")
	}

	returnType, err := domain.ParseReturnType(doc.ExpectedReturnType)
	if err != nil {
		return entity.RequestConfig{}, errors.Wrap(err, "incorrect 'expected_return_type' param in request config")
	}

	cfg := entity.RequestConfig{
		Source:             doc.Source,
		CodeLocation:       entity.Location(doc.CodeLocation),
		SecretsLocation:    entity.Location(doc.SecretsLocation),
		CodeLanguage:       entity.CodeLanguage(doc.CodeLanguage),
		ExpectedReturnType: returnType,
		Args:               doc.Args,
	}
	if len(doc.Secrets) > 0 {
		cfg.Secrets = make(entity.Secrets, len(doc.Secrets))
		for _, name := range doc.Secrets {
			cfg.Secrets[name] = ""
		}
	}

	if err := cfg.Validate(); err != nil {
		return entity.RequestConfig{}, errors.Wrap(err, "invalid request config")
	}
	return cfg, nil
}

// Save writes the descriptor atomically via temp file.
func (s *Store) Save(cfg entity.RequestConfig) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid request config")
	}

	args := cfg.Args
	if args == nil {
		args = []string{}
	}
	payload, err := yaml.Marshal(document{
		Source:             cfg.Source,
		CodeLocation:       string(cfg.CodeLocation),
		SecretsLocation:    string(cfg.SecretsLocation),
		CodeLanguage:       string(cfg.CodeLanguage),
		ExpectedReturnType: cfg.ExpectedReturnType.String(),
		Args:               args,
		Secrets:            cfg.Secrets.Names(),
	})
	if err != nil {
		return errors.Wrap(err, "encode request config")
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create request config dir")
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write request config temp file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "persist request config")
	}
	return nil
}
