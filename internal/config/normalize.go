package config

import "strings"

func (c *Config) normalize() {
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	c.Server.TempDir = ExpandPath(strings.TrimSpace(c.Server.TempDir))

	c.Engine.Backend = strings.ToLower(strings.TrimSpace(c.Engine.Backend))
	c.Engine.BaseURL = strings.TrimRight(strings.TrimSpace(c.Engine.BaseURL), "/")
	c.Engine.APIKey = strings.TrimSpace(c.Engine.APIKey)
	c.Engine.WhisperBinary = ExpandPath(strings.TrimSpace(c.Engine.WhisperBinary))
	c.Engine.Device = strings.ToLower(strings.TrimSpace(c.Engine.Device))
	if len(c.Engine.Models) > 0 {
		models := make(map[string]string, len(c.Engine.Models))
		for size, name := range c.Engine.Models {
			models[strings.ToLower(strings.TrimSpace(size))] = strings.TrimSpace(name)
		}
		c.Engine.Models = models
	}

	c.Tools.FFmpeg = ExpandPath(strings.TrimSpace(c.Tools.FFmpeg))
	c.Tools.FFprobe = ExpandPath(strings.TrimSpace(c.Tools.FFprobe))

	c.Defaults.Model = strings.ToLower(strings.TrimSpace(c.Defaults.Model))
	c.Defaults.Language = strings.TrimSpace(c.Defaults.Language)
	if c.Defaults.Language == "" {
		c.Defaults.Language = "auto"
	}

	c.Output.Dir = ExpandPath(strings.TrimSpace(c.Output.Dir))

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}
