package topics

import "strings"

// Key strategies
// Each source topic resolves its partition key through exactly one strategy.
const (
	// StrategyDefaultDerived derives the key from the topic name itself,
	// mirroring the destination-topic derivation. Used for any topic
	// without a registry entry.
	StrategyDefaultDerived = "default-derived"

	// StrategyStatic uses a fixed key for the whole topic. Single-stream
	// topics (session status, weather, race control) land on one partition
	// so consumers see them strictly ordered.
	StrategyStatic = "static"

	// StrategyFieldExtract extracts the key from a payload field, falling
	// back to a per-topic constant when the field is absent or the payload
	// is not a field mapping.
	StrategyFieldExtract = "field-extract"
)

// TopicRealtimeData is the default topic used by the producer
// connectivity smoke test.
const TopicRealtimeData = "f1-realtime-data"

// TopicConfig describes how records of one source topic are keyed.
type TopicConfig struct {
	SourceTopic string
	Strategy    string
	Key         string // static key (StrategyStatic)
	KeyField    string // payload field holding the key (StrategyFieldExtract)
	Fallback    string // key used when the field is missing (StrategyFieldExtract)
}

// Registry maps source topic names to their key-derivation strategy.
// Built once at startup; read-only afterwards.
type Registry struct {
	configs []TopicConfig
	byTopic map[string]TopicConfig
	topics  []string
}

// defaultConfigs returns the full list of live-timing topics the relay
// knows how to key, grouped by data family.
func defaultConfigs() []TopicConfig {
	return []TopicConfig{
		// Core telemetry and position data
		{SourceTopic: "CarData.z", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "car-unknown"},
		{SourceTopic: "Position.z", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "car-unknown"},

		// Timing information
		{SourceTopic: "TimingData.z", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "driver-unknown"},
		{SourceTopic: "TimingDataF1", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "driver-unknown"},
		{SourceTopic: "TimingStats", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "driver-unknown"},
		{SourceTopic: "TimingAppData", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "driver-unknown"},

		// Session information
		{SourceTopic: "SessionInfo", Strategy: StrategyStatic, Key: "session-info"},
		{SourceTopic: "SessionStatus", Strategy: StrategyStatic, Key: "session-status"},
		{SourceTopic: "TrackStatus", Strategy: StrategyStatic, Key: "track-status"},
		{SourceTopic: "ExtrapolatedClock", Strategy: StrategyStatic, Key: "session-clock"},

		// Weather and conditions
		{SourceTopic: "WeatherData", Strategy: StrategyStatic, Key: "weather-current"},
		{SourceTopic: "WeatherDataSeries", Strategy: StrategyStatic, Key: "weather-series"},

		// Driver and team information
		{SourceTopic: "DriverList", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "driver-unknown"},
		{SourceTopic: "TeamRadio", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "team-radio"},
		{SourceTopic: "RaceControlMessages", Strategy: StrategyStatic, Key: "race-control"},

		// Tire and pit information
		{SourceTopic: "TyreStintSeries", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "tyre-stint"},
		{SourceTopic: "CurrentTyres", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "current-tyres"},
		{SourceTopic: "PitStopSeries", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "pit-stop"},
		{SourceTopic: "PitLaneTimeCollection", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "pit-lane"},

		// Race analysis
		{SourceTopic: "LapSeries", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "lap-series"},
		{SourceTopic: "LapCount", Strategy: StrategyStatic, Key: "lap-count"},
		{SourceTopic: "OvertakeSeries", Strategy: StrategyFieldExtract, KeyField: "DriverNo", Fallback: "overtake"},
	}
}

// NewRegistry builds a registry from the default topic list. When subscribe
// is non-empty, only matching entries are kept; names without a default
// entry stay in the subscription list and resolve via the derived fallback.
func NewRegistry(subscribe []string) *Registry {
	defaults := defaultConfigs()

	if len(subscribe) == 0 {
		r := &Registry{
			configs: defaults,
			byTopic: make(map[string]TopicConfig, len(defaults)),
			topics:  make([]string, 0, len(defaults)),
		}
		for _, cfg := range defaults {
			r.byTopic[cfg.SourceTopic] = cfg
			r.topics = append(r.topics, cfg.SourceTopic)
		}
		return r
	}

	byName := make(map[string]TopicConfig, len(defaults))
	for _, cfg := range defaults {
		byName[cfg.SourceTopic] = cfg
	}

	r := &Registry{
		byTopic: make(map[string]TopicConfig, len(subscribe)),
		topics:  make([]string, 0, len(subscribe)),
	}
	for _, name := range subscribe {
		r.topics = append(r.topics, name)
		if cfg, ok := byName[name]; ok {
			r.configs = append(r.configs, cfg)
			r.byTopic[name] = cfg
		}
	}
	return r
}

// Lookup returns the configuration for a source topic, if registered.
func (r *Registry) Lookup(sourceTopic string) (TopicConfig, bool) {
	cfg, ok := r.byTopic[sourceTopic]
	return cfg, ok
}

// Topics returns the subscription list the registry was built with.
func (r *Registry) Topics() []string {
	out := make([]string, len(r.topics))
	copy(out, r.topics)
	return out
}

// Configs returns the registered topic configurations in registry order.
func (r *Registry) Configs() []TopicConfig {
	out := make([]TopicConfig, len(r.configs))
	copy(out, r.configs)
	return out
}

// Destination derives the broker topic for a source topic:
// "f1-" plus the lowercased segment before the first dot, or the whole
// name when there is no dot. CarData.z -> f1-cardata, LapCount -> f1-lapcount.
func Destination(sourceTopic string) string {
	name := sourceTopic
	if i := strings.Index(sourceTopic, "."); i >= 0 {
		name = sourceTopic[:i]
	}
	return "f1-" + strings.ToLower(name)
}
