package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"frameconomics/internal/models"
)

// GormStore implements RemoteStore on a gorm-managed relational database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Connect opens the PostgreSQL database described by dsn.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

// DB exposes the underlying gorm handle (health checks, shutdown).
func (s *GormStore) DB() *gorm.DB { return s.db }

// modelFor maps a table name to a zero value of its row type.
func modelFor(table string) (any, error) {
	switch table {
	case TableProfiles:
		return &models.Profile{}, nil
	case TableStories:
		return &models.Story{}, nil
	case TableComments:
		return &models.Comment{}, nil
	case TableLikes:
		return &models.Like{}, nil
	}
	return nil, ErrUnknownTable
}

func (s *GormStore) Select(ctx context.Context, table string, filters Filter, orderBy string, dest any) error {
	model, err := modelFor(table)
	if err != nil {
		return err
	}
	q := s.db.WithContext(ctx).Model(model)
	if len(filters) > 0 {
		q = q.Where(map[string]any(filters))
	}
	if orderBy != "" {
		q = q.Order(orderBy)
	}
	return q.Find(dest).Error
}

func (s *GormStore) Insert(ctx context.Context, table string, row any) error {
	if _, err := modelFor(table); err != nil {
		return err
	}
	if err := stampRow(row); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Create(row).Error
	if table == TableLikes && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateLike
	}
	return err
}

func (s *GormStore) Update(ctx context.Context, table string, id string, patch map[string]any) error {
	model, err := modelFor(table)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRowNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, table string, filters Filter) (int64, error) {
	model, err := modelFor(table)
	if err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, fmt.Errorf("store: refusing unfiltered delete on %s", table)
	}
	res := s.db.WithContext(ctx).Where(map[string]any(filters)).Delete(model)
	return res.RowsAffected, res.Error
}

func (s *GormStore) Count(ctx context.Context, table string, filters Filter) (int64, error) {
	model, err := modelFor(table)
	if err != nil {
		return 0, err
	}
	q := s.db.WithContext(ctx).Model(model)
	if len(filters) > 0 {
		q = q.Where(map[string]any(filters))
	}
	var n int64
	err = q.Count(&n).Error
	return n, err
}

// Migrate creates the four community tables and, on PostgreSQL, installs the
// triggers that keep likes_count and comments_count equal to the referencing
// row counts. The counts are the store's responsibility (spelled out on
// RemoteStore); nothing in the repositories patches them remotely.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Story{},
		&models.Comment{},
		&models.Like{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, stmt := range countTriggerStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate triggers: %w", err)
		}
	}
	return nil
}

var countTriggerStatements = []string{
	`CREATE OR REPLACE FUNCTION apply_like_count() RETURNS trigger AS $$
DECLARE
  row_ record;
  delta integer;
BEGIN
  IF TG_OP = 'INSERT' THEN
    row_ := NEW; delta := 1;
  ELSE
    row_ := OLD; delta := -1;
  END IF;
  IF row_.story_id IS NOT NULL THEN
    UPDATE stories SET likes_count = GREATEST(likes_count + delta, 0) WHERE id = row_.story_id;
  ELSIF row_.comment_id IS NOT NULL THEN
    UPDATE comments SET likes_count = GREATEST(likes_count + delta, 0) WHERE id = row_.comment_id;
  END IF;
  RETURN row_;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS likes_count_trigger ON likes`,
	`CREATE TRIGGER likes_count_trigger
AFTER INSERT OR DELETE ON likes
FOR EACH ROW EXECUTE FUNCTION apply_like_count()`,
	`CREATE OR REPLACE FUNCTION apply_comment_count() RETURNS trigger AS $$
BEGIN
  IF TG_OP = 'INSERT' THEN
    UPDATE stories SET comments_count = comments_count + 1 WHERE id = NEW.story_id;
    RETURN NEW;
  ELSE
    UPDATE stories SET comments_count = GREATEST(comments_count - 1, 0) WHERE id = OLD.story_id;
    RETURN OLD;
  END IF;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS comments_count_trigger ON comments`,
	`CREATE TRIGGER comments_count_trigger
AFTER INSERT OR DELETE ON comments
FOR EACH ROW EXECUTE FUNCTION apply_comment_count()`,
}
