package store

import "fmt"

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

type Options struct {
	Backend     string
	DataFile    string
	DatabaseURL string
	MongoURI    string
	MongoDB     string
}

// Open returns the DocumentStore selected by opts.Backend.
func Open(opts Options) (DocumentStore, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.DataFile), nil
	case BackendSQLite:
		return NewSQLiteStore(opts.DatabaseURL)
	case BackendMongo:
		return NewMongoStore(opts.MongoURI, opts.MongoDB)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
