package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbot/forensic-dispatch/analysis_client"
	"github.com/turbot/forensic-dispatch/config"
	"github.com/turbot/forensic-dispatch/containers"
	"github.com/turbot/forensic-dispatch/error_types"
	"github.com/turbot/forensic-dispatch/observable"
	"github.com/turbot/pipe-fittings/utils"
)

type stagingFetcher struct{}

func (stagingFetcher) Fetch(_ context.Context, uri string, localDir string) (string, error) {
	path := filepath.Join(localDir, filepath.Base(uri))
	return path, os.WriteFile(path, []byte(uri), 0644)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	interval := 1
	return &config.Config{
		Project:      "forensics",
		Zone:         "us-central1-f",
		Disk:         "disk-1",
		PollInterval: &interval,
		StagingDir:   utils.ToPointer(t.TempDir()),
	}
}

func writeResult(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "local.plaso")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))
	return path
}

func TestProcessor_Process(t *testing.T) {
	local := writeResult(t)
	client := analysis_client.NewScriptedClient(
		[]analysis_client.TaskRecord{
			{ID: "t1", Name: "PlasoTask", Status: analysis_client.TaskStatusSuccessful, SavedPaths: []string{local, "/w/worker-log.txt"}},
			{ID: "t2", Name: "PlasoTask", Status: analysis_client.TaskStatusPending},
		},
		[]analysis_client.TaskRecord{
			{ID: "t1", Name: "PlasoTask", Status: analysis_client.TaskStatusSuccessful, SavedPaths: []string{local, "/w/worker-log.txt"}},
			{ID: "t2", Name: "PlasoTask", Status: analysis_client.TaskStatusSuccessful, SavedPaths: []string{"gs://bucket/t2/remote.plaso", "gs://bucket/t2/t2.log"}},
		},
	)

	state := containers.NewState()
	require.NoError(t, state.StoreContainer(&containers.ThreatIntelligence{Name: "miner", Indicator: "xmrig"}))

	cfg := testConfig(t)
	status := observable.NewStatusObserver("")
	p := New(cfg, state, WithClient(client), WithFetcher(stagingFetcher{}), WithObserver(status))
	require.NoError(t, p.Setup(context.Background()))
	// a 1 second poll interval is the smallest the config allows
	require.NoError(t, p.Process(context.Background()))
	require.NoError(t, p.Cleanup())

	submitted := client.Submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, "disk-1", submitted[0].Evidence.TargetID)
	assert.Equal(t, []string{"xmrig"}, submitted[0].FilterPatterns)

	assert.Equal(t, []containers.LabelledPath{
		{Label: "forensics-disk-1", Path: local},
		{Label: "forensics-disk-1", Path: filepath.Join(p.StagingDir(), "remote.plaso")},
	}, state.Output())

	reports := containers.GetContainers[*containers.Report](state)
	require.Len(t, reports, 1)
	assert.Contains(t, reports[0].Text, "Completed 2 tasks")
	assert.False(t, state.HasCriticalError())

	s := status.Status()
	assert.Equal(t, 2, s.ProgressUpdates)
	assert.Equal(t, 2, s.TasksTotal)
	assert.Equal(t, 1, s.ArtifactsDownloaded)
	assert.Equal(t, 2, s.ArtifactsCollected)

	// the staging directory was provided, so survives cleanup
	assert.DirExists(t, p.StagingDir())
}

func TestProcessor_DiskFromPreviousModule(t *testing.T) {
	client := analysis_client.NewScriptedClient([]analysis_client.TaskRecord{
		{ID: "t1", Status: analysis_client.TaskStatusSuccessful, SavedPaths: []string{writeResult(t)}},
	})
	state := containers.NewState()
	require.NoError(t, state.StoreContainer(&containers.Disk{Name: "copied-disk"}))
	require.NoError(t, state.StoreContainer(&containers.Disk{Name: "second-disk"}))

	cfg := testConfig(t)
	cfg.Disk = ""
	p := New(cfg, state, WithClient(client))
	require.NoError(t, p.Setup(context.Background()))
	require.NoError(t, p.Process(context.Background()))

	require.Len(t, client.Submitted(), 1)
	assert.Equal(t, "copied-disk", client.Submitted()[0].Evidence.TargetID)
	assert.Equal(t, "forensics-copied-disk", state.Output()[0].Label)
}

func TestProcessor_Setup_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{name: "no project", modify: func(c *config.Config) { c.Project = "" }},
		{name: "no zone", modify: func(c *config.Config) { c.Zone = "" }},
		{name: "no api url", modify: func(c *config.Config) {}},
		{name: "missing plugin", modify: func(c *config.Config) {
			c.AnalysisPlugin = utils.ToPointer(filepath.Join(t.TempDir(), "no-such-plugin"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.modify(cfg)
			state := containers.NewState()

			err := New(cfg, state).Setup(context.Background())
			assert.ErrorIs(t, err, error_types.ErrConfiguration)
			assert.True(t, state.HasCriticalError())
			assert.Len(t, state.Errors(), 1)
		})
	}
}

func TestProcessor_Process_Failures(t *testing.T) {
	tests := []struct {
		name     string
		client   func() *analysis_client.ScriptedClient
		modify   func(*config.Config)
		wantKind error
	}{
		{
			name: "no disk",
			client: func() *analysis_client.ScriptedClient {
				return analysis_client.NewScriptedClient()
			},
			modify:   func(c *config.Config) { c.Disk = "" },
			wantKind: error_types.ErrConfiguration,
		},
		{
			name: "wrong service project",
			client: func() *analysis_client.ScriptedClient {
				return analysis_client.NewScriptedClient()
			},
			modify:   func(c *config.Config) { c.ServiceProject = "other" },
			wantKind: error_types.ErrConfiguration,
		},
		{
			name: "submit fails",
			client: func() *analysis_client.ScriptedClient {
				c := analysis_client.NewScriptedClient()
				c.SubmitErr = errors.New("connection refused")
				return c
			},
			wantKind: error_types.ErrDispatch,
		},
		{
			name: "poll fails",
			client: func() *analysis_client.ScriptedClient {
				c := analysis_client.NewScriptedClient()
				c.FailOnPoll = 1
				c.GetTasksErr = errors.New("503")
				return c
			},
			wantKind: error_types.ErrPoll,
		},
		{
			name: "no plaso output",
			client: func() *analysis_client.ScriptedClient {
				return analysis_client.NewScriptedClient([]analysis_client.TaskRecord{
					{ID: "t1", Status: analysis_client.TaskStatusFailed, SavedPaths: []string{"/w/worker-log.txt"}},
				})
			},
			wantKind: error_types.ErrNoArtifacts,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.StagingDir = nil
			if tt.modify != nil {
				tt.modify(cfg)
			}
			state := containers.NewState()
			status := observable.NewStatusObserver("")

			p := New(cfg, state, WithClient(tt.client()), WithObserver(status))
			require.NoError(t, p.Setup(context.Background()))
			staging := p.StagingDir()
			assert.DirExists(t, staging)

			err := p.Process(context.Background())
			assert.ErrorIs(t, err, tt.wantKind)
			require.Len(t, state.Errors(), 1)
			assert.True(t, state.Errors()[0].Critical)
			assert.Empty(t, state.Output())
			assert.Equal(t, 1, status.Status().Errors)

			// a staging directory created by the processor is removed after a failed run
			require.NoError(t, p.Cleanup())
			assert.NoDirExists(t, staging)
		})
	}
}

func TestProcessor_Process_NotSetUp(t *testing.T) {
	state := containers.NewState()
	err := New(testConfig(t), state).Process(context.Background())
	assert.ErrorIs(t, err, error_types.ErrConfiguration)
	assert.True(t, state.HasCriticalError())
}
