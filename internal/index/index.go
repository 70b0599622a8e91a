package index

// WorkIndex defines the interface for work indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type WorkIndex interface {
	UpsertWork(w WorkRow, body string) error
	DeleteWork(name string) error
	GetChecksum(name string) (string, error)
	ByKeyword(keyword string) ([]WorkRow, error)
	Keywords() ([]KeywordCount, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies WorkIndex at compile time.
var _ WorkIndex = (*DB)(nil)
