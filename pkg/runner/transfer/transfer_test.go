package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/config"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/store"
	"tableflip.dev/quickmsg/pkg/templates"
)

func newApp(t *testing.T) *app.App {
	t.Helper()
	cfg := &config.Config{
		DocumentPartition: store.Local,
		Scheduler:         config.SchedulerConfig{Mode: config.SchedulerEmbedded, SweepInterval: time.Minute, RequestTimeout: time.Second},
		Notify:            config.NotifyConfig{Kind: config.NotifyLog},
	}
	a, err := app.New(context.Background(), cfg, store.NewMemory(store.SyncedOptions{}), nil, app.Options{})
	require.NoError(t, err)
	return a
}

func TestExportImportIntoNewCategory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "export.json")

	src := &Transfer{App: newApp(t), Output: printers.Output{JSON: true, Out: &bytes.Buffer{}}}
	require.NoError(t, src.Export(ctx, path))

	var out bytes.Buffer
	dst := &Transfer{App: newApp(t), Output: printers.Output{JSON: true, Out: &out}}
	require.NoError(t, dst.Import(ctx, path, ImportOptions{NewCategory: "Imported"}))

	var res templates.ImportResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	doc := templates.DefaultDocument()
	assert.Len(t, res.Messages, len(doc.Messages))
	require.Len(t, res.CreatedCategories, 1)
	assert.Equal(t, "Imported", res.CreatedCategories[0].Name)

	msgs, err := dst.App.Templates.Messages(ctx, res.CreatedCategories[0].ID)
	require.NoError(t, err)
	assert.Len(t, msgs, len(doc.Messages))
	for i, m := range msgs {
		assert.Equal(t, i, m.Order)
	}
}

func TestImportFromStdinRejectsGarbage(t *testing.T) {
	tr := &Transfer{App: newApp(t), In: bytes.NewBufferString(`{"nope":true}`)}
	err := tr.Import(context.Background(), "-", ImportOptions{})
	assert.ErrorIs(t, err, templates.ErrInvalidImport)
}
