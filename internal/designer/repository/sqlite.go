package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"label-designer/internal/designer/models"

	"github.com/google/uuid"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("template not found")

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Init запускает миграции и убеждается в наличии шаблона по умолчанию.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return r.ensureDefault(ctx)
}

const templateColumns = `id, name, width_mm, height_mm, is_default, data, created_at`

// Save вставляет или обновляет шаблон. Пустой ID заполняется новым uuid.
// Если шаблон помечен по умолчанию, флаг снимается с остальных.
func (r *Repository) Save(ctx context.Context, t *models.Template) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = r.now().UTC().Format(time.RFC3339)
	}
	t.WidthMM = t.Data.Label.WidthMM
	t.HeightMM = t.Data.Label.HeightMM

	data, err := models.EncodeTemplate(t.Data, models.FormatJSON)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if t.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE templates SET is_default = 0 WHERE id <> ?`, t.ID); err != nil {
			return fmt.Errorf("reset default: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO templates (`+templateColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            width_mm = excluded.width_mm,
            height_mm = excluded.height_mm,
            is_default = excluded.is_default,
            data = excluded.data
    `, t.ID, t.Name, t.WidthMM, t.HeightMM, t.IsDefault, string(data), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.Template, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+templateColumns+`
        FROM templates
        WHERE id = ?
    `, id)

	t, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// Default возвращает шаблон, помеченный по умолчанию.
func (r *Repository) Default(ctx context.Context) (*models.Template, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+templateColumns+`
        FROM templates
        WHERE is_default = 1
        LIMIT 1
    `)

	t, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// List отдаёт все шаблоны: сначала шаблон по умолчанию, затем по дате создания.
func (r *Repository) List(ctx context.Context) ([]models.Template, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+templateColumns+`
        FROM templates
        ORDER BY is_default DESC, created_at ASC, name ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	out := []models.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*models.Template, error) {
	var (
		t    models.Template
		data string
	)
	if err := row.Scan(&t.ID, &t.Name, &t.WidthMM, &t.HeightMM, &t.IsDefault, &data, &t.CreatedAt); err != nil {
		return nil, err
	}
	// ошибка декодирования мягкая: макет уже дополнен значениями по умолчанию
	t.Data, _ = models.DecodeTemplate([]byte(data))
	return &t, nil
}

// ============================================================
// Migrations & Seeding
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, name := range files {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (r *Repository) ensureDefault(ctx context.Context) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates`).Scan(&count); err != nil {
		return fmt.Errorf("count templates: %w", err)
	}
	if count > 0 {
		return nil
	}

	standard := StandardTemplate()
	if err := r.Save(ctx, &standard); err != nil {
		return fmt.Errorf("seed standard template: %w", err)
	}
	return nil
}

// StandardTemplate: стартовый шаблон 100×60 мм. Поля данных привязаны
// только к текстовым элементам.
func StandardTemplate() models.Template {
	data := models.EmptyTemplate()

	text := func(z int, y float64, content, field string, size float64, weight models.FontWeight) models.Element {
		el, _ := models.NewElement(models.TypeText, models.NewID(string(models.TypeText)), z)
		el.Y, el.W, el.H = y, 90, 7
		el.DataField = field
		el.Body = models.TextBody{Text: content, FontSize: size, FontWeight: weight, Align: models.AlignLeft}
		return el
	}

	data.Elements = append(data.Elements,
		text(1, 4, "{modelName}", "modelName", 14, models.WeightBold),
		text(2, 12, "SKU: {sku}", "sku", 10, models.WeightNormal),
		text(3, 19, "{dimensions}", "dimensions", 10, models.WeightNormal),
		text(4, 26, "{materialType}, {color}", "color", 10, models.WeightNormal),
	)

	line, _ := models.NewElement(models.TypeLine, models.NewID(string(models.TypeLine)), 5)
	line.Y, line.W = 34, 90
	qr, _ := models.NewElement(models.TypeQR, models.NewID(string(models.TypeQR)), 6)
	qr.X, qr.Y, qr.W, qr.H = 73, 37, 20, 20
	barcode, _ := models.NewElement(models.TypeBarcode, models.NewID(string(models.TypeBarcode)), 7)
	barcode.X, barcode.Y, barcode.W, barcode.H = 5, 40, 60, 14
	data.Elements = append(data.Elements, line, qr, barcode)

	return models.Template{
		Name:      "Standard",
		IsDefault: true,
		Data:      data,
	}
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
