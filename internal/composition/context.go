package composition

import "time"

// StandardContext names the context variables the Template Engine is
// always handed, regardless of content type.
type StandardContext struct {
	Name             string
	ContentType      string
	SourceLayers     string
	Timestamp        time.Time
	Version          string
	Template         string
	OutputDir        string
	OutputPath       string
	ProjectEdisonDir string
}

// BuildContextVars merges the standard context variables with caller
// extras (extras win on key conflict) into the map form the Template
// Engine consumes.
func BuildContextVars(std StandardContext, extra map[string]any) map[string]any {
	vars := map[string]any{
		"name":               std.Name,
		"content_type":       std.ContentType,
		"source_layers":      std.SourceLayers,
		"timestamp":          std.Timestamp.UTC().Format(time.RFC3339),
		"version":            std.Version,
		"template":           std.Template,
		"output_dir":         std.OutputDir,
		"output_path":        std.OutputPath,
		"PROJECT_EDISON_DIR": std.ProjectEdisonDir,
	}
	for k, v := range extra {
		vars[k] = v
	}
	return vars
}
