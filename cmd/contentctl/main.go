// contentctl manages collections and documents directly against the configured database.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/localnerve/jam-build-contentdb/data"
	"github.com/localnerve/jam-build-contentdb/internal/config"
	"github.com/localnerve/jam-build-contentdb/internal/database"
	"github.com/localnerve/jam-build-contentdb/internal/logging"
	"github.com/localnerve/jam-build-contentdb/internal/models"
	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"github.com/localnerve/jam-build-contentdb/internal/services"
	"github.com/localnerve/jam-build-contentdb/internal/types"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"
	"gorm.io/gorm"
)

var (
	app     = kingpin.New("contentctl", "Manage contentdb collections and documents.")
	envFile = app.Flag("env", "dotenv file to load before reading the environment").Default(".env").String()

	migrateCmd = app.Command("migrate", "create or update the storage tables")

	collectionCmd    = app.Command("collection", "manage collections")
	collectionCreate = collectionCmd.Command("create", "create a collection from a JSON or YAML schema")
	collectionFile   = collectionCreate.Arg("file", "schema file").Required().ExistingFile()
	collectionList   = collectionCmd.Command("list", "list collections")
	collectionDelete = collectionCmd.Command("delete", "delete a collection and all of its documents")
	collectionDelRef = collectionDelete.Arg("collection", "collection id or path").Required().String()

	documentCmd  = app.Command("document", "manage documents")
	documentPut  = documentCmd.Command("put", "create a document or write a new version of it")
	putColl      = documentPut.Arg("collection", "collection id or path").Required().String()
	putFile      = documentPut.Arg("file", "document JSON file").Required().ExistingFile()
	putID        = documentPut.Flag("id", "document id to version").Uint64()
	putPath      = documentPut.Flag("path", "document path").String()
	putLocale    = documentPut.Flag("locale", "version locale").Default(schema.DefaultLocale).String()
	putStatus    = documentPut.Flag("status", "document status").Default(models.StatusDraft).Enum(models.StatusDraft, models.StatusPublished, models.StatusArchived)
	documentGet  = documentCmd.Command("get", "print the current version of a document")
	getColl      = documentGet.Arg("collection", "collection id or path").Required().String()
	getID        = documentGet.Arg("id", "document id").Required().Uint64()
	getLocale    = documentGet.Flag("locale", "locale to reconstruct, or all").Default(schema.DefaultLocale).String()
	getFlat      = documentGet.Flag("flat", "print flat records instead of the nested document").Bool()
	documentHist = documentCmd.Command("history", "list the versions of a document")
	histColl     = documentHist.Arg("collection", "collection id or path").Required().String()
	histID       = documentHist.Arg("id", "document id").Required().Uint64()
	histPage     = documentHist.Flag("page", "page number").Default("1").Int()

	seedCmd = app.Command("seed", "migrate and load the sample pages collection and home document")
)

// stdout receives command output
var stdout io.Writer = os.Stdout

func main() {
	app.HelpFlag.Short('h')
	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	app.FatalIfError(run(command), "%s", command)
}

// run executes a parsed command. The logger and database are released before run
// returns, so a failing command still closes them ahead of the process exit.
func run(command string) error {
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	logr, err := logging.New(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logr.Sync() }()

	db, err := database.Connect(cfg, logr)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer database.Close(db)

	ctx := context.Background()

	switch command {
	case migrateCmd.FullCommand():
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		logr.Info("migrations complete")
		return nil
	case collectionCreate.FullCommand():
		return createCollection(ctx, db, *collectionFile)
	case collectionList.FullCommand():
		return listCollections(ctx, db)
	case collectionDelete.FullCommand():
		return deleteCollection(ctx, db, *collectionDelRef)
	case documentPut.FullCommand():
		return putDocument(ctx, db, *putColl, *putFile)
	case documentGet.FullCommand():
		return getDocument(ctx, db, *getColl, *getID)
	case documentHist.FullCommand():
		return documentHistory(ctx, db, cfg, *histColl, *histID)
	case seedCmd.FullCommand():
		return seed(ctx, db, logr)
	}
	return fmt.Errorf("unknown command %q", command)
}

func createCollection(ctx context.Context, db *gorm.DB, file string) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	sc, err := schema.Parse(raw)
	if err != nil {
		return err
	}
	m, err := services.CreateCollection(ctx, db, sc)
	if err != nil {
		return err
	}
	return printJSON(m)
}

func listCollections(ctx context.Context, db *gorm.DB) error {
	list, err := services.ListCollections(ctx, db)
	if err != nil {
		return err
	}
	return printJSON(list)
}

func deleteCollection(ctx context.Context, db *gorm.DB, ref string) error {
	m, err := lookupCollection(ctx, db, ref)
	if err != nil {
		return err
	}
	return services.DeleteCollection(ctx, db, m.CollectionID)
}

func putDocument(ctx context.Context, db *gorm.DB, ref, file string) error {
	m, err := lookupCollection(ctx, db, ref)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	doc, err := decodeDocument(raw)
	if err != nil {
		return err
	}

	in := services.VersionInput{
		CollectionID: m.CollectionID,
		Data:         doc,
		Path:         *putPath,
		Locale:       *putLocale,
		Status:       *putStatus,
	}
	if *putID > 0 {
		in.DocumentID = putID
	}

	res, err := services.CreateOrVersionDocument(ctx, db, in)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func getDocument(ctx context.Context, db *gorm.DB, ref string, id uint64) error {
	m, err := lookupCollection(ctx, db, ref)
	if err != nil {
		return err
	}
	view, err := services.GetDocumentByID(ctx, db, m.CollectionID, id, *getLocale, !*getFlat)
	if err != nil {
		return err
	}
	return printJSON(view)
}

func documentHistory(ctx context.Context, db *gorm.DB, cfg *config.Config, ref string, id uint64) error {
	m, err := lookupCollection(ctx, db, ref)
	if err != nil {
		return err
	}
	page, err := services.ListDocumentHistory(ctx, db, m.CollectionID, id, services.ListOptions{
		Page:        *histPage,
		PageSize:    cfg.PageSizeDefault,
		MaxPageSize: cfg.PageSizeMax,
	})
	if err != nil {
		return err
	}
	return printJSON(page)
}

// seed loads the embedded sample collection and document. An existing pages
// collection is reused.
func seed(ctx context.Context, db *gorm.DB, logr *zap.Logger) error {
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	sc, err := schema.Parse(data.SampleCollection)
	if err != nil {
		return err
	}

	m, err := services.GetCollectionByPath(ctx, db, sc.Path)
	if types.IsNotFound(err) {
		if m, err = services.CreateCollection(ctx, db, sc); err != nil {
			return err
		}
		logr.Info("created collection", zap.String("path", m.Path), zap.Uint64("id", m.CollectionID))
	} else if err != nil {
		return err
	}

	doc, err := decodeDocument(data.SampleDocument)
	if err != nil {
		return err
	}

	in := services.VersionInput{
		CollectionID: m.CollectionID,
		Data:         doc,
		Path:         "home",
		Locale:       schema.DefaultLocale,
		Status:       models.StatusPublished,
	}
	if existing, err := services.GetDocumentByPath(ctx, db, m.CollectionID, in.Path, schema.DefaultLocale, false); err == nil {
		in.DocumentID = &existing.ID
	}

	res, err := services.CreateOrVersionDocument(ctx, db, in)
	if err != nil {
		return err
	}
	logr.Info("seeded document",
		zap.Uint64("document", res.DocumentID),
		zap.Uint64("version", res.VersionNumber),
		zap.Int64("records", res.Records))
	return nil
}

func lookupCollection(ctx context.Context, db *gorm.DB, ref string) (*models.Collection, error) {
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil && id > 0 {
		return services.GetCollectionByID(ctx, db, id)
	}
	return services.GetCollectionByPath(ctx, db, ref)
}

func decodeDocument(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
