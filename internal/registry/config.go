package registry

type Config struct {
	TestFraction   float64 `envconfig:"PERFML_TEST_FRACTION" default:"0.2"`
	Seed           int64   `envconfig:"PERFML_SEED" default:"42"`
	FitConcurrency int     `envconfig:"PERFML_FIT_CONCURRENCY" default:"5"`
	ParamsFile     string  `envconfig:"PERFML_PARAMS_FILE"`
}
