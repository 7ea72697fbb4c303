package config

import "flag"

// Flags holds command-line overrides. Only flags the user actually set are
// applied, so a config file value survives an unset flag's default.
type Flags struct {
	fs *flag.FlagSet

	ConfigPath   string
	Count        int
	Extent       float64
	Seed         int64
	Texture      string
	Debug        bool
	SaveSnapshot string
	LoadSnapshot string
}

func BindFlags(fs *flag.FlagSet) *Flags {
	def := Default()
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "YAML config file")
	fs.IntVar(&f.Count, "count", def.Particles.Count, "number of particles")
	fs.Float64Var(&f.Extent, "extent", float64(def.Particles.Extent), "edge length of the particle cube")
	fs.Int64Var(&f.Seed, "seed", def.Particles.Seed, "random seed (0 = time based)")
	fs.StringVar(&f.Texture, "texture", def.Material.AlphaMap, "sprite alpha map texture")
	fs.BoolVar(&f.Debug, "debug", def.Debug, "enable debug logging and profiler output")
	fs.StringVar(&f.SaveSnapshot, "save-snapshot", "", "write the generated field to this file")
	fs.StringVar(&f.LoadSnapshot, "load-snapshot", "", "draw a previously saved field instead of generating one")
	return f
}

// Resolve loads the config file named by -config (or the defaults) and
// applies the flags that were set on the command line.
func (f *Flags) Resolve() (Config, error) {
	cfg := Default()
	if f.ConfigPath != "" {
		var err error
		if cfg, err = Load(f.ConfigPath); err != nil {
			return cfg, err
		}
	}
	f.Apply(&cfg)
	return cfg, cfg.Validate()
}

func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "count":
			cfg.Particles.Count = f.Count
		case "extent":
			cfg.Particles.Extent = float32(f.Extent)
		case "seed":
			cfg.Particles.Seed = f.Seed
		case "texture":
			cfg.Material.AlphaMap = f.Texture
		case "debug":
			cfg.Debug = f.Debug
		case "save-snapshot":
			cfg.Particles.SaveSnapshot = f.SaveSnapshot
		case "load-snapshot":
			cfg.Particles.LoadSnapshot = f.LoadSnapshot
		}
	})
}
