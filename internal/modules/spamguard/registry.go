package spamguard

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrFormNotFound signals that no registered form matched the request.
var ErrFormNotFound = errors.New("no form configuration matched the request")

// Registry holds every registered form configuration, keyed by form id.
type Registry struct {
	forms map[string]*FormConfig
}

type registryFile struct {
	Forms map[string]*FormConfig `yaml:"forms"`
}

// LoadRegistry reads the forms YAML file.
func LoadRegistry(path string) (*Registry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read forms file %q: %w", path, err)
	}
	return ParseRegistry(content)
}

// ParseRegistry builds a Registry from raw YAML.
func ParseRegistry(content []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parse forms registry: %w", err)
	}

	reg := &Registry{forms: map[string]*FormConfig{}}
	for name, form := range file.Forms {
		if form == nil {
			form = &FormConfig{}
		}
		form.Name = name
		reg.forms[name] = form
	}
	return reg, nil
}

// Get returns the form with the given id.
func (r *Registry) Get(name string) (*FormConfig, bool) {
	form, ok := r.forms[strings.TrimSpace(name)]
	return form, ok
}

// Resolve locates the form configuration for a submission: the config_path
// body field wins, then a referer-path lookup. Resolution failure is
// fail-fast, never retried.
func (r *Registry) Resolve(configPath, referer string) (*FormConfig, error) {
	if name := strings.TrimSpace(configPath); name != "" {
		if form, ok := r.Get(name); ok {
			return form, nil
		}
		return nil, fmt.Errorf("%w: unknown form %q", ErrFormNotFound, name)
	}

	path := refererPath(referer)
	if path == "" {
		return nil, fmt.Errorf("%w: no config_path and no usable referer", ErrFormNotFound)
	}

	for _, form := range r.forms {
		for _, registered := range form.Referers {
			if matchPath(registered, path) {
				return form, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: referer path %q", ErrFormNotFound, path)
}

func refererPath(referer string) string {
	referer = strings.TrimSpace(referer)
	if referer == "" {
		return ""
	}
	if parsed, err := url.Parse(referer); err == nil && parsed.Path != "" {
		return normalizePath(parsed.Path)
	}
	return normalizePath(referer)
}

func matchPath(registered, path string) bool {
	return normalizePath(registered) == path
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		// The site root stays "/" rather than collapsing to nothing.
		return "/"
	}
	return trimmed
}
