package mongo

import "time"

// Config holds the work-log store settings.
type Config struct {
	URI                string        `env:"MONGO_URI"                 envDefault:"mongodb://localhost:27017"`
	Database           string        `env:"MONGO_DATABASE"            envDefault:"scribe"`
	WorklogCollection  string        `env:"MONGO_WORKLOG_COLLECTION"  envDefault:"worklogs"`
	EmployeeCollection string        `env:"MONGO_EMPLOYEE_COLLECTION" envDefault:"employees"`
	VectorIndex        string        `env:"MONGO_VECTOR_INDEX"        envDefault:"worklog_embedding_index"`
	EmbeddingField     string        `env:"MONGO_EMBEDDING_FIELD"     envDefault:"embedding"`
	ContentBudget      int           `env:"MONGO_CONTENT_BUDGET"      envDefault:"700"`
	ConnectTimeout     time.Duration `env:"MONGO_CONNECT_TIMEOUT"     envDefault:"10s"`
}
