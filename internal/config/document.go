// Package config implements the declarative document decoder: job/task
// YAML documents are decoded into runtime objects via an ExternalData
// capability (credential lookup, read-filter/entry-to-msg-map
// load-by-name), with template merge and unknown-field rejection along
// the way.
//
// Grounded on go-core/config's Vault-backed secret wrapper for the
// credential side; the YAML decode/merge machinery uses gopkg.in/yaml.v3,
// matching fetcher-config/src/jobs's serde-based "deny_unknown_fields"
// plus templates design.
package config

import (
	"bytes"
	"fmt"

	"github.com/nats-io/nats.go"
	"gopkg.in/yaml.v3"
)

// TemplateLoader resolves a named template to its raw YAML bytes.
type TemplateLoader interface {
	LoadTemplate(name string) ([]byte, error)
}

// ExternalData is the capability object config entities decode
// against: credential lookup, read-filter/entry-to-msg-map
// load-and-save-by-name, and the shared JetStream context an eventbus
// sink publishes through.
type ExternalData interface {
	TwitterBearerToken() (string, error)
	TelegramBotToken() (string, error)
	IMAPPassword(account string) (string, error)
	GoogleOAuth2(handle string) (clientID, clientSecret, refreshToken string, err error)
	LoadReadFilter(name string) ([]byte, bool, error)
	SaveReadFilter(name string, data []byte) error
	LoadMsgMap(name string) ([]byte, bool, error)
	SaveMsgMap(name string, data []byte) error
	JetStream(url string) (nats.JetStreamContext, error)
	TemplateLoader
}

// docEnvelope peeks at just the fields needed to decide whether to
// short-circuit before doing the (possibly expensive) template merge.
type docEnvelope struct {
	Disabled  bool     `yaml:"disabled"`
	Templates []string `yaml:"templates"`
}

// ErrDisabled is returned by DecodeJobDocument when a job's disabled
// flag short-circuits loading, evaluated before template merge.
var ErrDisabled = fmt.Errorf("job is disabled")

// DecodeJobDocument merges raw's templates (in listed order, raw
// applied last) and decodes the result into a JobDoc with yaml.v3's
// KnownFields check enabled, so an unrecognised key is an error. There
// is no whitelist of places exempt from that check; the mapping form of
// an element data query, decoded by its own UnmarshalYAML, is not
// checked for unknown keys.
func DecodeJobDocument(raw []byte, loader TemplateLoader) (*JobDoc, error) {
	var envelope docEnvelope
	if err := yaml.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("config: peek job document: %w", err)
	}
	if envelope.Disabled {
		return nil, ErrDisabled
	}

	merged, err := mergeTemplates(raw, envelope.Templates, loader)
	if err != nil {
		return nil, err
	}

	var doc JobDoc
	dec := yaml.NewDecoder(bytes.NewReader(merged))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("config: decode job document: %w", err)
	}
	return &doc, nil
}

// mergeTemplates loads each named template, merges them left-to-right
// (leaf keys overridden by later templates, lists replaced wholesale),
// then merges raw on top as the final, highest-priority layer.
func mergeTemplates(raw []byte, templates []string, loader TemplateLoader) ([]byte, error) {
	merged := map[string]interface{}{}
	for _, name := range templates {
		data, err := loader.LoadTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("config: load template %q: %w", name, err)
		}
		var tmpl map[string]interface{}
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return nil, fmt.Errorf("config: decode template %q: %w", name, err)
		}
		merged = mergeMaps(merged, tmpl)
	}

	var own map[string]interface{}
	if err := yaml.Unmarshal(raw, &own); err != nil {
		return nil, fmt.Errorf("config: decode document: %w", err)
	}
	merged = mergeMaps(merged, own)

	out, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("config: re-marshal merged document: %w", err)
	}
	return out, nil
}

// mergeMaps merges src into dst: nested maps merge recursively, every
// other value (scalar or list) from src replaces dst's entirely — a
// list is never appended to, only overridden.
func mergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	for k, v := range src {
		if existing, ok := dst[k]; ok {
			if existingMap, ok1 := existing.(map[string]interface{}); ok1 {
				if srcMap, ok2 := v.(map[string]interface{}); ok2 {
					dst[k] = mergeMaps(existingMap, srcMap)
					continue
				}
			}
		}
		dst[k] = v
	}
	return dst
}
