package topics

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/andrelan/f1-telemetry-relay/internal/livetiming"
)

// ResolveKey derives the partition key for a record, in priority order:
// explicit static key, then payload-field extraction, then a key derived
// from the topic name for unregistered topics. Every record receives a
// non-empty key; the broker scopes ordering to records sharing one.
//
// The unregistered-topic fallback deliberately reuses the destination
// formula, f1- prefix included.
func (r *Registry) ResolveKey(sourceTopic string, record livetiming.Record) string {
	cfg, ok := r.Lookup(sourceTopic)
	if !ok {
		return Destination(sourceTopic)
	}

	switch cfg.Strategy {
	case StrategyStatic:
		return cfg.Key
	case StrategyFieldExtract:
		if !record.IsMapping() {
			return cfg.Fallback
		}
		value, ok := record.Field(cfg.KeyField)
		if !ok || value == nil {
			return cfg.Fallback
		}
		key := stringifyKey(value)
		if key == "" {
			return cfg.Fallback
		}
		return key
	default:
		return Destination(sourceTopic)
	}
}

// stringifyKey renders a payload field value as a key string. Integral
// numbers render without a decimal point so DriverNo 44 keys as "44"
// whether the feed delivered it as a string or a number.
func stringifyKey(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
