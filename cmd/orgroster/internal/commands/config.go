package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// YAMLConfig is a kong configuration loader for YAML files.
//
// Nested keys are joined with "-" so they line up with prefixed flag names:
//
//	store:
//	  type: postgres
//	  postgres:
//	    conn-string: postgres://localhost/orgroster
//
// resolves --store-type and --store-postgres-conn-string.
func YAMLConfig(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	flat := map[string]string{}
	flatten("", values, flat)

	var f kong.ResolverFunc = func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if v, ok := flat[flag.Name]; ok {
			return v, nil
		}
		if v, ok := flat[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
			return v, nil
		}
		return nil, nil
	}

	return f, nil
}

func flatten(prefix string, values map[string]any, out map[string]string) {
	for key, value := range values {
		name := key
		if prefix != "" {
			name = prefix + "-" + key
		}

		switch v := value.(type) {
		case map[string]any:
			flatten(name, v, out)
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				items = append(items, fmt.Sprint(item))
			}
			out[name] = strings.Join(items, ",")
		case nil:
		default:
			out[name] = fmt.Sprint(v)
		}
	}
}

// LoadEnvFiles loads each file into the process environment. Missing files are skipped
// and variables already set are left alone.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}
