package config

type Config struct {
	Server   Server
	Database Database
	Cache    Cache
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

type Database struct {
	Type      string `mapstructure:"type"`
	SQLite    SQLite
	Firestore Firestore
	Mongo     Mongo
}

type SQLite struct {
	ConnectionString string `mapstructure:"connection_string"`
	MigrationsPath   string `mapstructure:"migrations_path"`
}

type Firestore struct {
	ProjectID           string `mapstructure:"project_id"`
	CredentialsFile     string `mapstructure:"credentials_file"`
	CourseCollectionID  string `mapstructure:"course_collection_id"`
	StudentCollectionID string `mapstructure:"student_collection_id"`
}

type Mongo struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type Cache struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}
