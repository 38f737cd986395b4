// inspect_schema prints the DDL GORM generates for the engine tables on SQLite.
package main

import (
	"fmt"
	"log"

	"github.com/localnerve/jam-build-contentdb/internal/database"
	"github.com/localnerve/jam-build-contentdb/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

func main() {
	db, err := database.Open(sqlite.Open(":memory:?_foreign_keys=on"), zap.NewNop(), false)
	if err != nil {
		log.Fatal(err)
	}

	// Auto-migrate to see what GORM creates
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	for _, model := range models.All() {
		stmt := db.Model(model).Statement
		if err := stmt.Parse(model); err != nil {
			log.Fatal(err)
		}
		table := stmt.Schema.Table

		fmt.Printf("\n=== Table: %s ===\n", table)
		var ddl []string
		db.Raw("SELECT sql FROM sqlite_master WHERE tbl_name = ? AND sql IS NOT NULL ORDER BY type DESC, name", table).Scan(&ddl)
		for _, sql := range ddl {
			fmt.Println(sql + ";")
		}
	}
}
