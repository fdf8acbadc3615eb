package index

import "github.com/kbr/toolsite/internal/models"

// PageIndex defines the interface for page indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type PageIndex interface {
	UpsertPage(p models.Page, body string) error
	DeletePage(file string) error
	GetChecksum(file string) (string, error)
	AllChecksums() (map[string]string, error)
	ListPages() ([]models.Page, error)
	GetPage(id string) (models.Page, error)
	Search(query string, limit int) ([]SearchHit, error)
	Ping() error
	Close() error
}

// Verify *DB satisfies PageIndex at compile time.
var _ PageIndex = (*DB)(nil)
