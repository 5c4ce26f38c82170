package updates

import (
	"errors"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

type Config struct {
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`
}

// AdminSet is an immutable set of administrator user ids.
type AdminSet struct {
	ids map[int64]struct{}
}

func NewAdminSet(ids ...int64) AdminSet {
	set := AdminSet{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		if id != 0 {
			set.ids[id] = struct{}{}
		}
	}
	return set
}

// ParseAdminIDs builds an AdminSet from a secret store value. Lists of
// numbers or numeric strings and comma separated strings such as "1, 2" are
// accepted. A nil value yields an empty set.
func ParseAdminIDs(raw any) (AdminSet, error) {
	if raw == nil {
		return NewAdminSet(), nil
	}

	var ids []int64
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stripSpaces,
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &ids,
	})
	if err != nil {
		return AdminSet{}, errors.Join(ErrInvalidAdminIDs, err)
	}
	if err := dec.Decode(raw); err != nil {
		return AdminSet{}, errors.Join(ErrInvalidAdminIDs, err)
	}
	return NewAdminSet(ids...), nil
}

func stripSpaces(from, _ reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	return strings.Join(strings.Fields(reflect.ValueOf(data).String()), ""), nil
}

func (s AdminSet) Contains(userID int64) bool {
	_, ok := s.ids[userID]
	return ok
}

func (s AdminSet) Len() int { return len(s.ids) }

// Union returns a set holding the ids of both sets.
func (s AdminSet) Union(other AdminSet) AdminSet {
	ids := make([]int64, 0, len(s.ids)+len(other.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	for id := range other.ids {
		ids = append(ids, id)
	}
	return NewAdminSet(ids...)
}
