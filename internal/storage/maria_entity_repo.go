package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/entity"
)

// MariaEntityRepo реализует EntityRepo для базы данных MariaDB/MySQL.
// Использует таблицу raycast_entities.
type MariaEntityRepo struct {
	db *sql.DB
}

// NewMariaEntityRepo создает новый репозиторий сущностей для MariaDB.
// Автоматически создает таблицу, если она не существует.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaEntityRepo(ctx context.Context, dsn string) (*MariaEntityRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := NewMariaEntityRepoWithDB(db)

	if err := repo.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	return repo, nil
}

// NewMariaEntityRepoWithDB использует уже открытое соединение; таблица должна существовать
func NewMariaEntityRepoWithDB(db *sql.DB) *MariaEntityRepo {
	return &MariaEntityRepo{db: db}
}

// createTable создает таблицу raycast_entities, если она не существует.
func (r *MariaEntityRepo) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS raycast_entities (
			entity_id  BIGINT UNSIGNED PRIMARY KEY,
			type       SMALLINT UNSIGNED NOT NULL,
			x          DOUBLE NOT NULL,
			y          DOUBLE NOT NULL,
			z          DOUBLE NOT NULL,
			width      DOUBLE NOT NULL,
			height     DOUBLE NOT NULL,
			eye_height DOUBLE NOT NULL,
			yaw        DOUBLE NOT NULL DEFAULT 0,
			pitch      DOUBLE NOT NULL DEFAULT 0,
			active     BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы raycast_entities: %w", err)
	}
	return nil
}

const upsertEntityQuery = `
	INSERT INTO raycast_entities (entity_id, type, x, y, z, width, height, eye_height, yaw, pitch, active)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		type = VALUES(type),
		x = VALUES(x),
		y = VALUES(y),
		z = VALUES(z),
		width = VALUES(width),
		height = VALUES(height),
		eye_height = VALUES(eye_height),
		yaw = VALUES(yaw),
		pitch = VALUES(pitch),
		active = VALUES(active),
		updated_at = CURRENT_TIMESTAMP
`

const selectEntityColumns = `SELECT entity_id, type, x, y, z, width, height, eye_height, yaw, pitch, active FROM raycast_entities`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func upsertEntity(ctx context.Context, db execer, e *entity.Entity) error {
	_, err := db.ExecContext(ctx, upsertEntityQuery,
		e.ID, uint16(e.Type),
		e.Position.X, e.Position.Y, e.Position.Z,
		e.Size.Width, e.Size.Height, e.Size.EyeHeight,
		e.Yaw, e.Pitch, e.Active,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения сущности %d: %w", e.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(row rowScanner) (*entity.Entity, error) {
	var (
		e   entity.Entity
		typ uint16
		pos vec.Vec3Float
	)
	err := row.Scan(&e.ID, &typ, &pos.X, &pos.Y, &pos.Z,
		&e.Size.Width, &e.Size.Height, &e.Size.EyeHeight,
		&e.Yaw, &e.Pitch, &e.Active)
	if err != nil {
		return nil, err
	}
	e.Type = entity.EntityType(typ)
	e.Position = pos
	return &e, nil
}

// Save сохраняет сущность через INSERT ... ON DUPLICATE KEY UPDATE
func (r *MariaEntityRepo) Save(ctx context.Context, e *entity.Entity) error {
	if err := validateEntity(e); err != nil {
		return err
	}
	return upsertEntity(ctx, r.db, e)
}

// Load загружает сущность из базы данных
func (r *MariaEntityRepo) Load(ctx context.Context, id uint64) (*entity.Entity, bool, error) {
	if id == 0 {
		return nil, false, fmt.Errorf("недействительный ID сущности: %d", id)
	}

	e, err := scanEntity(r.db.QueryRowContext(ctx, selectEntityColumns+` WHERE entity_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка загрузки сущности %d: %w", id, err)
	}
	return e, true, nil
}

// LoadAll загружает все сущности
func (r *MariaEntityRepo) LoadAll(ctx context.Context) ([]*entity.Entity, error) {
	rows, err := r.db.QueryContext(ctx, selectEntityColumns+` ORDER BY entity_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки сущностей: %w", err)
	}
	defer rows.Close()

	result := make([]*entity.Entity, 0)
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения строки сущности: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обхода сущностей: %w", err)
	}
	return result, nil
}

// Delete удаляет сущность
func (r *MariaEntityRepo) Delete(ctx context.Context, id uint64) error {
	if id == 0 {
		return fmt.Errorf("недействительный ID сущности: %d", id)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM raycast_entities WHERE entity_id = ?`, id); err != nil {
		return fmt.Errorf("ошибка удаления сущности %d: %w", id, err)
	}
	return nil
}

// BatchSave сохраняет сущности в одной транзакции
func (r *MariaEntityRepo) BatchSave(ctx context.Context, entities []*entity.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	for _, e := range entities {
		if err := validateEntity(e); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entities {
		if err := upsertEntity(ctx, tx, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка подтверждения транзакции: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой данных
func (r *MariaEntityRepo) Close() error {
	return r.db.Close()
}
