package config

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

// overridable reports whether a value loaded from a file should replace a default.
func overridable(v interface{}) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map:
		return false
	case reflect.Array, reflect.Slice:
		// only override with a non-empty list
		return reflect.ValueOf(v).Len() > 0
	case reflect.Int, reflect.Bool, reflect.String:
		// "", 0, false are legitimate settings; config structs use omitempty
		return true
	}
	return !reflect.ValueOf(v).IsZero()
}

func isMap(v interface{}) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Map
}

func mergeOverrides(defaults map[string]interface{}, overrides map[string]interface{}) {
	for key, val := range overrides {
		existing, ok := defaults[key]
		if !ok {
			defaults[key] = val
			continue
		}
		if isMap(existing) && isMap(val) {
			existingMap, ok1 := existing.(map[string]interface{})
			valMap, ok2 := val.(map[string]interface{})
			if !ok1 || !ok2 {
				panic(fmt.Sprintf("unknown map: %T", existing))
			}
			mergeOverrides(existingMap, valMap)
		} else if overridable(val) {
			defaults[key] = val
		}
	}
}

// ApplyDefaults writes defaultCfg overlaid with overrideCfg into newCfg.
// All three are round-tripped through yaml.
func ApplyDefaults(defaultCfg interface{}, overrideCfg interface{}, newCfg interface{}) error {
	defaults, err := toMap(defaultCfg)
	if err != nil {
		return err
	}
	overrides, err := toMap(overrideCfg)
	if err != nil {
		return err
	}
	mergeOverrides(defaults, overrides)

	bz, err := yaml.Marshal(defaults)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(bz, newCfg)
}

func toMap(cfg interface{}) (map[string]interface{}, error) {
	bz, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := yaml.Unmarshal(bz, &out); err != nil {
		return nil, err
	}
	return out, nil
}
