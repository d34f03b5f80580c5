package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

// scoped restricts a query to one workspace.
func scoped(ctx context.Context, db *gorm.DB, workspaceID uuid.UUID) *gorm.DB {
	return db.WithContext(ctx).Where("workspace_id = ?", workspaceID)
}

func paginate(query *gorm.DB, skip, limit int) *gorm.DB {
	if skip > 0 {
		query = query.Offset(skip)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	return query
}

// findScoped loads the row with id inside workspaceID into dst.
func findScoped(ctx context.Context, db *gorm.DB, dst interface{}, id, workspaceID uuid.UUID) error {
	return scoped(ctx, db, workspaceID).Where("id = ?", id).First(dst).Error
}

// updateScoped applies changes to the row with id inside workspaceID and
// reloads it into dst. Returns gorm.ErrRecordNotFound for absent or foreign rows.
func updateScoped(ctx context.Context, db *gorm.DB, dst interface{}, id, workspaceID uuid.UUID, changes models.Fields) error {
	if err := findScoped(ctx, db, dst, id, workspaceID); err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}
	// Fields is a named map type; gorm only recognises the plain map.
	if err := db.WithContext(ctx).Model(dst).Updates(map[string]interface{}(changes)).Error; err != nil {
		return err
	}
	return findScoped(ctx, db, dst, id, workspaceID)
}

// deleteScoped hard-deletes the row with id inside workspaceID.
func deleteScoped(ctx context.Context, db *gorm.DB, model interface{}, id, workspaceID uuid.UUID) error {
	res := scoped(ctx, db, workspaceID).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE wildcards in s for use with ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// IsNotFound reports whether err is gorm's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
