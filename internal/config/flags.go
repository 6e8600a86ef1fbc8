package config

// Overrides are command-line values applied on top of the file. Nil or empty
// fields leave the config untouched.
type Overrides struct {
	Debug      bool
	StartIndex *int
	EndIndex   *int
	Seed       *uint64
	Workers    *int
	Output     string
	AssetRoots []string
	DryRun     bool
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, o Overrides) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.StartIndex != nil {
		cfg.Layout.StartIndex = *o.StartIndex
	}
	if o.EndIndex != nil {
		cfg.Layout.EndIndex = *o.EndIndex
	}
	if o.Seed != nil {
		cfg.Layout.Seed = *o.Seed
	}
	if o.Workers != nil {
		cfg.Layout.Workers = *o.Workers
	}
	if o.Output != "" {
		cfg.Container.Path = o.Output
	}
	if len(o.AssetRoots) > 0 {
		cfg.Assets.Roots = o.AssetRoots
	}
	if o.DryRun {
		cfg.Container.Backend = BackendDryRun
	}
}
