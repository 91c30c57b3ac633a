package agora

import (
	"github.com/lunagic/agora/agoraservices/database"
)

func WithDatabaseAutoMigration(db *database.Service, entities []database.Entity) ConfigurationFunc {
	return func(app *App) error {
		app.database = db
		app.databaseAutoMigrationEntities = entities

		return nil
	}
}
