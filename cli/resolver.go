package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/scribe/log"
)

// resolve returns a [kong.ConfigurationLoader] for YAML configuration files.
//
// Keys name flags without their leading dashes. Nested mappings are joined
// with hyphens, and underscores may stand in for hyphens, so the following
// documents are equivalent:
//
//	log-level: debug
//	log_format: json
//
//	log:
//	  level: debug
//	  format: json
//
// Sequences become one value per element, so list elements may hold commas.
// Command-line flags and environment variables override file values. A
// file that fails to parse is ignored with a warning.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		cfg, err := decodeConfig(r)
		if err != nil {
			log.WarnContext(ctx, "ignoring configuration file",
				slog.Any("error", err),
			)

			return config{}, nil
		}

		return cfg, nil
	}
}

func decodeConfig(r io.Reader) (config, error) {
	var doc any

	err := yaml.NewDecoder(r, yaml.UseOrderedMap()).Decode(&doc)
	if errors.Is(err, io.EOF) {
		return config{}, nil
	}

	if err != nil {
		return nil, err
	}

	root, ok := doc.(yaml.MapSlice)
	if !ok {
		if doc == nil {
			return config{}, nil
		}

		return nil, fmt.Errorf("configuration must be a mapping, not %T", doc)
	}

	cfg := make(config)
	cfg.flatten("", root)

	return cfg, nil
}

// config implements [kong.Resolver] over a flattened configuration file.
type config map[string]any

func (c config) flatten(prefix string, m yaml.MapSlice) {
	for _, item := range m {
		key := strings.ReplaceAll(fmt.Sprint(item.Key), "_", "-")
		if prefix != "" {
			key = prefix + "-" + key
		}

		if sub, ok := item.Value.(yaml.MapSlice); ok {
			c.flatten(key, sub)

			continue
		}

		c[key] = flagText(item.Value)
	}
}

// flagText renders a YAML scalar or sequence the way kong parses it from the
// command line. Booleans are kept, so negatable flags resolve.
func flagText(v any) any {
	switch v := v.(type) {
	case nil, bool, string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		part := make([]any, len(v))
		for i, e := range v {
			part[i] = fmt.Sprint(flagText(e))
		}

		return part
	default:
		return fmt.Sprint(v)
	}
}

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	return nil, nil
}
