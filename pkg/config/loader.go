package config

import (
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/skylift/pkg/errors"
)

var envToken = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadDocument reads a YAML file, substitutes ${VAR} tokens from the
// environment, and unmarshals the result into out.
func LoadDocument(filePath string, out interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
			WithDetail("path", filePath)
	}

	content := substituteEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), out); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML").
			WithDetail("path", filePath)
	}

	return nil
}

// LoadSource loads and validates a source document.
func LoadSource(filePath string) (*SourceDocument, error) {
	var doc SourceDocument
	if err := LoadDocument(filePath, &doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadDestination loads and validates a destination document.
func LoadDestination(filePath string) (*DestinationDocument, error) {
	var doc DestinationDocument
	if err := LoadDocument(filePath, &doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadConnection loads and validates a connection document.
func LoadConnection(filePath string) (*ConnectionDocument, error) {
	var doc ConnectionDocument
	if err := LoadDocument(filePath, &doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// substituteEnvVars replaces whole ${VAR_NAME} tokens with environment
// variable values. Tokens whose variable is unset are left intact, so
// platform macros such as ${SOURCE_NAMESPACE} pass through unchanged.
func substituteEnvVars(content string) string {
	return envToken.ReplaceAllStringFunc(content, func(token string) string {
		name := token[2 : len(token)-1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return token
	})
}
