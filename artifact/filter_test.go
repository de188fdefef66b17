package artifact

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/turbot/forensic-dispatch/events"
)

func TestFilter_Apply(t *testing.T) {
	type args struct {
		extensions []string
		taskId     string
		savedPaths []string
	}
	tests := []struct {
		name         string
		args         args
		wantRetained []Path
		wantExcluded []Exclusion
	}{
		{
			name: "local worker log and remote",
			args: args{
				extensions: []string{".fmt"},
				taskId:     "abc",
				savedPaths: []string{"/out/result.fmt", "/logs/worker-log.txt", "gs://bucket/result.fmt"},
			},
			wantRetained: []Path{Local("/out/result.fmt"), Remote("gs://bucket/result.fmt")},
			wantExcluded: []Exclusion{{Path: "/logs/worker-log.txt", Reason: events.ExclusionWorkerLog}},
		},
		{
			name: "task log and wrong extension dropped",
			args: args{
				taskId:     "abc",
				savedPaths: []string{"gs://bucket/abc/abc.log", "/tmp/scratch/output.txt", "s3://bucket/abc/timeline.plaso"},
			},
			wantRetained: []Path{Remote("s3://bucket/abc/timeline.plaso")},
			wantExcluded: []Exclusion{
				{Path: "gs://bucket/abc/abc.log", Reason: events.ExclusionTaskLog},
				{Path: "/tmp/scratch/output.txt", Reason: events.ExclusionExtension},
			},
		},
		{
			name: "unknown scheme",
			args: args{
				taskId:     "abc",
				savedPaths: []string{"relative/a.plaso", "https://host/a.plaso"},
			},
			wantExcluded: []Exclusion{
				{Path: "relative/a.plaso", Reason: events.ExclusionUnknownScheme},
				{Path: "https://host/a.plaso", Reason: events.ExclusionUnknownScheme},
			},
		},
		{
			name: "nil saved paths",
			args: args{taskId: "abc"},
		},
		{
			name: "order preserved with no dedup",
			args: args{
				taskId:     "t",
				savedPaths: []string{"gs://b/2.plaso", "/x/1.plaso", "gs://b/2.plaso"},
			},
			wantRetained: []Path{Remote("gs://b/2.plaso"), Local("/x/1.plaso"), Remote("gs://b/2.plaso")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(tt.args.extensions)
			retained, excluded := f.Apply(tt.args.taskId, tt.args.savedPaths)
			if diff := cmp.Diff(tt.wantRetained, retained, cmp.AllowUnexported(Path{})); diff != "" {
				t.Errorf("retained mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantExcluded, excluded); diff != "" {
				t.Errorf("excluded mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// noise paths are dropped whatever the task id
func TestFilter_Apply_NoiseForAllTaskIds(t *testing.T) {
	f := NewFilter([]string{".log", ".txt", ".plaso"})
	for i := 0; i < 50; i++ {
		taskId := fmt.Sprintf("%x", i*7919)
		savedPaths := []string{
			WorkerLogName,
			"/var/log/worker/" + WorkerLogName,
			"gs://bucket/" + taskId + "/" + WorkerLogName,
			"/out/" + taskId + ".log",
			"s3://bucket/" + taskId + ".log",
		}
		retained, excluded := f.Apply(taskId, savedPaths)
		assert.Empty(t, retained, "task %s", taskId)
		assert.Len(t, excluded, len(savedPaths), "task %s", taskId)
	}
}

func TestPath_Scheme(t *testing.T) {
	assert.Equal(t, "gs", Remote("gs://bucket/a").Scheme())
	assert.Equal(t, "s3", Remote("s3://bucket/a").Scheme())
	assert.Equal(t, "", Local("/a").Scheme())
	assert.Equal(t, KindLocal, Local("/a").Kind())
	assert.Equal(t, "remote(gs://b/o)", Remote("gs://b/o").String())
}

func TestValidateExtensions(t *testing.T) {
	assert.NoError(t, ValidateExtensions([]string{".plaso", ".json"}))
	assert.EqualError(t, ValidateExtensions([]string{"plaso", "", ".ok"}), "invalid extensions: plaso,<empty>")
}
