package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"label-designer/internal/designer/models"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "designer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestInitSeedsStandardTemplateOnce(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	std := list[0]
	assert.Equal(t, "Standard", std.Name)
	assert.True(t, std.IsDefault)
	assert.Equal(t, 100.0, std.WidthMM)
	assert.Equal(t, 60.0, std.HeightMM)
	assert.Len(t, std.Data.Elements, 7)

	// повторный Init не дублирует шаблон
	require.NoError(t, repo.Init(ctx))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	def, err := repo.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, std.ID, def.ID)
}

func TestSaveGetUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	data := models.EmptyTemplate()
	data.Label.WidthMM, data.Label.HeightMM = 58, 40
	qr, _ := models.NewElement(models.TypeQR, "qr_1", 1)
	data.Elements = append(data.Elements, qr)

	tpl := &models.Template{Name: "Small", Data: data}
	require.NoError(t, repo.Save(ctx, tpl))
	require.NotEmpty(t, tpl.ID)
	assert.Equal(t, "2025-01-01T00:00:02Z", tpl.CreatedAt)

	got, err := repo.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Small", got.Name)
	assert.Equal(t, 58.0, got.WidthMM)
	assert.Equal(t, 40.0, got.HeightMM)
	assert.False(t, got.IsDefault)
	require.Len(t, got.Data.Elements, 1)
	assert.Equal(t, "qr_1", got.Data.Elements[0].ID)

	tpl.Name = "Small v2"
	require.NoError(t, repo.Save(ctx, tpl))

	got, err = repo.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Small v2", got.Name)
	assert.Equal(t, tpl.CreatedAt, got.CreatedAt)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSaveDefaultIsExclusive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tpl := &models.Template{Name: "Mine", IsDefault: true, Data: models.EmptyTemplate()}
	require.NoError(t, repo.Save(ctx, tpl))

	def, err := repo.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, def.ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, tpl.ID, list[0].ID, "default template is listed first")
	assert.False(t, list[1].IsDefault)
}

func TestDeleteAndNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), ErrNotFound)

	tpl := &models.Template{Name: "Tmp", Data: models.EmptyTemplate()}
	require.NoError(t, repo.Save(ctx, tpl))
	require.NoError(t, repo.Delete(ctx, tpl.ID))

	_, err = repo.Get(ctx, tpl.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStandardTemplateBindsFields(t *testing.T) {
	std := StandardTemplate()

	fields := map[string]models.ElementType{}
	for _, el := range std.Data.Elements {
		if el.DataField != "" {
			fields[el.DataField] = el.Type()
		}
	}
	assert.Equal(t, map[string]models.ElementType{
		"modelName":  models.TypeText,
		"sku":        models.TypeText,
		"dimensions": models.TypeText,
		"color":      models.TypeText,
	}, fields)
}
