// Package cli wires the annotation engine into cobra commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"

	"annotcore/internal/core"
	"annotcore/internal/infra/persistence"
	"annotcore/internal/ingest"
	"annotcore/pkg/domain"
)

var (
	errColor = color.New(color.FgRed).SprintFunc()
	okColor  = color.New(color.FgGreen).SprintFunc()
	dimColor = color.New(color.Faint).SprintFunc()
)

// loadTemplate decodes an annotation template from a JSON file.
func loadTemplate(path string) (domain.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Template{}, fmt.Errorf("read template: %w", err)
	}
	var template domain.Template
	if err := json.Unmarshal(data, &template); err != nil {
		return domain.Template{}, fmt.Errorf("decode template %s: %w", path, err)
	}
	for _, def := range template.Annotations {
		if !def.Type.Known() {
			return domain.Template{}, fmt.Errorf("template %s: annotation %q has unknown type %q", path, def.Name, def.Type)
		}
	}
	return template, nil
}

// newSession builds a service over the env-selected draft store, applies
// the template when one is given, and ingests the file arguments.
func newSession(ctx context.Context, templatePath string, fileArgs []string, recursive bool) (*core.Service, error) {
	store, err := persistence.OpenDraftStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open draft store: %w", err)
	}
	svc := core.NewService(core.WithDraftStore(store))

	if templatePath != "" {
		template, err := loadTemplate(templatePath)
		if err != nil {
			return nil, err
		}
		if err := svc.ApplyTemplate(ctx, template); err != nil {
			return nil, err
		}
	}
	if len(fileArgs) > 0 {
		paths, err := ingest.Expand(fileArgs, ingest.Options{Recursive: recursive})
		if err != nil {
			return nil, err
		}
		if err := svc.AddFiles(ctx, paths...); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// sortedCellKeys orders a per-cell error map for stable output.
func sortedCellKeys(cells map[domain.RecordKey]map[string]string) []domain.RecordKey {
	keys := make([]domain.RecordKey, 0, len(cells))
	for key := range cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
