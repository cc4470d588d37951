package config

// ConfigDiff describes what changed between two configs. Only fields that
// can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	ModelsChanged   bool
	ModelChanges    []ModelDiff
	LogLevelChanged bool
	NewLogLevel     LogLevel
}

// ModelDiff describes what changed for a single model between two configs.
type ModelDiff struct {
	Name                  string
	MaxLengthBreakChanged bool
	MiniBatchWordsChanged bool
	ReplicasChanged       bool
	Added                 bool
	Removed               bool
}

// Diff compares old and new configs and returns what changed. Only tracks
// changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	oldModels := make(map[string]*ModelConfig, len(old.Models))
	for i := range old.Models {
		oldModels[old.Models[i].Name] = &old.Models[i]
	}
	newModels := make(map[string]*ModelConfig, len(new.Models))
	for i := range new.Models {
		newModels[new.Models[i].Name] = &new.Models[i]
	}

	for name, oldModel := range oldModels {
		newModel, exists := newModels[name]
		if !exists {
			d.ModelChanges = append(d.ModelChanges, ModelDiff{Name: name, Removed: true})
			d.ModelsChanged = true
			continue
		}
		md := diffModel(name, oldModel, newModel)
		if md.MaxLengthBreakChanged || md.MiniBatchWordsChanged || md.ReplicasChanged {
			d.ModelChanges = append(d.ModelChanges, md)
			d.ModelsChanged = true
		}
	}

	for name := range newModels {
		if _, exists := oldModels[name]; !exists {
			d.ModelChanges = append(d.ModelChanges, ModelDiff{Name: name, Added: true})
			d.ModelsChanged = true
		}
	}

	return d
}

// diffModel compares two model configs with the same name.
func diffModel(name string, old, new *ModelConfig) ModelDiff {
	md := ModelDiff{Name: name}
	md.MaxLengthBreakChanged = old.MaxLengthBreak != new.MaxLengthBreak
	md.MiniBatchWordsChanged = old.MiniBatchWords != new.MiniBatchWords
	md.ReplicasChanged = old.Replicas != new.Replicas
	return md
}
