package dispatcher

type Config struct {
	// ReportFile receives the model comparison after every train; empty disables it.
	ReportFile string `envconfig:"PERFML_REPORT_FILE" default:"models/model_results.json"`
}
