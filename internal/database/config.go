package database

type Config struct {
	// FileName is the bolt file; empty means models.db inside the models directory.
	FileName string `envconfig:"PERFML_DB_FILE"`
}
