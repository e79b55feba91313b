package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchyard-systems/switchyard/internal/store/dynamo"
	"github.com/switchyard-systems/switchyard/internal/store/filestore"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

const fileConfig = `
store: file
file:
  root: /var/lib/switchyard/routes
server:
  addr: ":8080"
  apiKey: dev-key
surfaceAliases:
  whiteboard: canvas
streamSinks:
  - type: channel
    buffer: 32
  - type: webhook
    url: http://hooks.internal/route-changes
approval:
  tokens:
    - change-window-1
`

func TestParse_FileStore(t *testing.T) {
	cfg, err := Parse([]byte(fileConfig))
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Store)
	fc, ok := cfg.File.(*filestore.Config)
	require.True(t, ok)
	assert.Equal(t, "/var/lib/switchyard/routes", fc.Root)

	require.NotNil(t, cfg.Server)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "dev-key", cfg.Server.APIKey)

	assert.Equal(t, "canvas", cfg.SurfaceAliases["whiteboard"])

	require.Len(t, cfg.StreamSinks, 2)
	assert.Equal(t, types.SinkChannel, cfg.StreamSinks[0].Type)
	assert.Equal(t, 32, cfg.StreamSinks[0].Buffer)
	assert.Equal(t, types.SinkWebhook, cfg.StreamSinks[1].Type)

	require.NotNil(t, cfg.Approval)
	assert.Equal(t, []string{"change-window-1"}, cfg.Approval.Tokens)
}

func TestParse_DynamoStore(t *testing.T) {
	cfg, err := Parse([]byte(`
store: dynamodb
dynamodb:
  tableName: switchyard-routes
  region: us-east-1
`))
	require.NoError(t, err)

	dc, ok := cfg.DynamoDB.(*dynamo.Config)
	require.True(t, ok)
	assert.Equal(t, "switchyard-routes", dc.TableName)
	assert.Equal(t, "us-east-1", dc.Region)
}

func TestParse_MemoryStore(t *testing.T) {
	cfg, err := Parse([]byte("store: memory\n"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store)
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing store", "server:\n  addr: ':8080'\n"},
		{"unknown store", "store: etcd\n"},
		{"file without root", "store: file\nfile: {}\n"},
		{"dynamo without table", "store: dynamodb\ndynamodb:\n  region: us-east-1\n"},
		{"webhook sink without url", "store: memory\nstreamSinks:\n  - type: webhook\n"},
		{"sns sink without topic", "store: memory\nstreamSinks:\n  - type: sns\n"},
		{"unknown sink", "store: memory\nstreamSinks:\n  - type: kafka\n"},
		{"approval url and tokens", "store: memory\napproval:\n  url: http://x\n  tokens: [a]\n"},
		{"bad yaml", "store: [unclosed\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(fileConfig), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Store)

	_, err = Load(t.TempDir())
	assert.Error(t, err)
}
