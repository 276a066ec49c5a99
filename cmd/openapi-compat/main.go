// Command openapi-compat fails when an API revision removes paths,
// operations or response codes that a baseline document declares.
// Without -revision the swagger document compiled into the server is used.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"chirp/docs"

	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

type operation struct {
	Responses map[string]struct{}
}

type parsedSpec struct {
	Paths map[string]map[string]operation
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("openapi-compat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	basePath := fs.String("base", "", "baseline swagger.yaml or swagger.json path")
	revisionPath := fs.String("revision", "", "revision document path (default: compiled server docs)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if strings.TrimSpace(*basePath) == "" {
		fmt.Fprintln(stderr, "usage: openapi-compat -base <path> [-revision <path>]")
		return 2
	}

	baseSpec, err := loadFile(*basePath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load base spec: %v\n", err)
		return 1
	}

	var revisionSpec parsedSpec
	if strings.TrimSpace(*revisionPath) == "" {
		revisionSpec, err = parseSpec([]byte(docs.SwaggerInfo.ReadDoc()))
	} else {
		revisionSpec, err = loadFile(*revisionPath)
	}
	if err != nil {
		fmt.Fprintf(stderr, "failed to load revision spec: %v\n", err)
		return 1
	}

	issues := compare(baseSpec, revisionSpec)
	if len(issues) > 0 {
		fmt.Fprintln(stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(stderr, "- %s\n", issue)
		}
		return 1
	}

	fmt.Fprintf(stdout, "openapi compatibility check passed (%d paths)\n", len(baseSpec.Paths))
	return 0
}

func loadFile(path string) (parsedSpec, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return parsedSpec{}, err
	}
	return parseSpec(raw)
}

// parseSpec accepts YAML or JSON; JSON documents are valid YAML.
func parseSpec(raw []byte) (parsedSpec, error) {
	doc := map[string]any{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return parsedSpec{}, err
	}

	pathsRaw, ok := doc["paths"]
	if !ok {
		return parsedSpec{}, errors.New("missing top-level paths field")
	}
	pathsMap, ok := pathsRaw.(map[string]any)
	if !ok {
		return parsedSpec{}, errors.New("paths is not an object")
	}

	spec := parsedSpec{Paths: make(map[string]map[string]operation)}
	for pathKey, pathEntry := range pathsMap {
		pathOps, ok := pathEntry.(map[string]any)
		if !ok {
			continue
		}

		ops := make(map[string]operation)
		for methodKey, methodEntry := range pathOps {
			method := strings.ToLower(strings.TrimSpace(methodKey))
			if _, supported := supportedMethods[method]; !supported {
				continue
			}
			methodMap, ok := methodEntry.(map[string]any)
			if !ok {
				continue
			}

			responses := make(map[string]struct{})
			if raw, ok := methodMap["responses"].(map[string]any); ok {
				for code := range raw {
					if c := strings.ToLower(strings.TrimSpace(code)); c != "" {
						responses[c] = struct{}{}
					}
				}
			}
			ops[method] = operation{Responses: responses}
		}

		if len(ops) > 0 {
			spec.Paths[pathKey] = ops
		}
	}
	return spec, nil
}

func compare(base, revision parsedSpec) []string {
	var issues []string

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}

		for method, baseOp := range baseOps {
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), path))
				continue
			}
			for code := range baseOp.Responses {
				if _, ok := revOp.Responses[code]; !ok {
					issues = append(issues, fmt.Sprintf(
						"removed response code: %s %s -> %s",
						strings.ToUpper(method), path, strings.ToUpper(code),
					))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}
