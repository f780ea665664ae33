package config

// Default returns the default configuration.
func Default() *StaticConfig {
	return &StaticConfig{
		ListOutput: "yaml",
		Toolsets:   []string{"crds"},
		// hyperthreading breaks gemini-cli client-side schema validation
		// (https://github.com/google-gemini/gemini-cli schema handling of the
		// AgentClusterInstall hyperthreading enum), keep it out of every
		// reduced schema unless explicitly overridden.
		ExcludedProperties: []string{"hyperthreading"},
	}
}
