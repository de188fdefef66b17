package publisher

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/turbot/forensic-dispatch/analysis_client"
	"github.com/turbot/forensic-dispatch/artifact"
	"github.com/turbot/forensic-dispatch/collector"
	"github.com/turbot/forensic-dispatch/containers"
)

const ModuleName = "ForensicDispatchProcessor"

// OutputSetter receives the artifacts handed to the next pipeline stage
type OutputSetter interface {
	SetOutput(output []containers.LabelledPath)
}

// Publisher renders a human readable summary of a completed request and
// hands the collected artifacts on
type Publisher struct {
	ModuleName string
	Format     containers.TextFormat
	// Console, if set, is also sent the rendered report
	Console io.Writer
}

func New(format containers.TextFormat) *Publisher {
	if format == "" {
		format = containers.TextFormatPlainText
	}
	return &Publisher{
		ModuleName: ModuleName,
		Format:     format,
	}
}

// Publish stores the report then sets the output, in collected order
func (p *Publisher) Publish(w containers.Writer, out OutputSetter, tasks []analysis_client.TaskRecord, artifacts []collector.Artifact) error {
	text := p.Render(tasks)
	if p.Console != nil {
		fmt.Fprintln(p.Console, text)
	}

	report := containers.NewReport(p.ModuleName, text, p.Format)
	if err := w.StoreContainer(report); err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}

	output := make([]containers.LabelledPath, len(artifacts))
	for i, a := range artifacts {
		output[i] = containers.LabelledPath{Label: a.Label, Path: a.LocalPath}
	}
	out.SetOutput(output)

	slog.Info("Published results", "tasks", len(tasks), "artifacts", len(output))
	return nil
}

func (p *Publisher) Render(tasks []analysis_client.TaskRecord) string {
	if p.Format == containers.TextFormatMarkdown {
		return renderMarkdown(tasks)
	}
	return renderPlainText(tasks)
}

func renderPlainText(tasks []analysis_client.TaskRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Completed %d tasks\n", len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(&b, "%s (%s): %s\n", t.Name, t.ID, statusText(t))
		for _, path := range reportedPaths(t) {
			fmt.Fprintf(&b, "  %s\n", path)
		}
	}
	return b.String()
}

func renderMarkdown(tasks []analysis_client.TaskRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Completed %d tasks\n\n", len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(&b, "* **%s** (`%s`): %s\n", t.Name, t.ID, statusText(t))
		for _, path := range reportedPaths(t) {
			fmt.Fprintf(&b, "    * `%s`\n", path)
		}
	}
	return b.String()
}

func statusText(t analysis_client.TaskRecord) string {
	if t.StatusDetail != "" {
		return t.StatusDetail
	}
	return t.Status.String()
}

// reportedPaths lists the remote outputs of a task, skipping its logs.
// Local paths are listed by the output instead.
func reportedPaths(t analysis_client.TaskRecord) []string {
	var res []string
	for _, path := range t.SavedPaths {
		switch {
		case strings.HasSuffix(path, artifact.WorkerLogName):
		case t.ID != "" && strings.HasSuffix(path, t.ID+".log"):
		case strings.HasPrefix(path, "/"):
		default:
			res = append(res, path)
		}
	}
	return res
}
