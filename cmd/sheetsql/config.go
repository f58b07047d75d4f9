package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sheetsql/sheets-client-go/sheets"
)

// options are the console settings, read from the config file and then
// overridden by flags.
type options struct {
	Headers            int               `yaml:"headers"`
	Raise              bool              `yaml:"raise"`
	ServiceAccountFile string            `yaml:"service_account_file"`
	Subject            string            `yaml:"subject"`
	HTTPTimeout        time.Duration     `yaml:"http_timeout"`
	ExtraHTTPHeaders   map[string]string `yaml:"extra_http_headers"`
	Compression        string            `yaml:"compression"`
	History            string            `yaml:"history"`
}

func loadOptions(path string) (*options, error) {
	opts := &options{}
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if opts.Headers < 0 {
		return nil, fmt.Errorf("invalid config %s: headers must not be negative", path)
	}
	return opts, nil
}

func (o *options) clientConfig() *sheets.ClientConfig {
	return &sheets.ClientConfig{
		ExtraHTTPHeader:    o.ExtraHTTPHeaders,
		HTTPTimeout:        o.HTTPTimeout,
		Headers:            o.Headers,
		Compression:        o.Compression,
		ServiceAccountFile: o.ServiceAccountFile,
		Subject:            o.Subject,
	}
}
