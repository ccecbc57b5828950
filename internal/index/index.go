package index

// TaskIndex defines the interface for task indexing operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type TaskIndex interface {
	UpsertDoc(d DocRow, tasks []TaskRow, refs []RefRow) error
	DeleteDoc(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListDocs(limit, offset int, tag, sort string) ([]DocRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Graph() ([]GraphNode, []GraphLink, error)
	Referencers(anchor string) ([]string, error)
	Close() error
}

// Verify *DB satisfies TaskIndex at compile time.
var _ TaskIndex = (*DB)(nil)
