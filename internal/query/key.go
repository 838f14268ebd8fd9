package query

import "github.com/julianstephens/sutra/internal/constants"

// Key identifies a cached query: an operation name plus its parameter.
// Keys are comparable and safe to use as map keys.
type Key struct {
	Name  string
	Param string
}

func (k Key) String() string {
	if k.Param == "" {
		return k.Name
	}
	return k.Name + "/" + k.Param
}

func HabitsKey() Key {
	return Key{Name: constants.QueryHabits}
}

func CompletionsKey(habitID string) Key {
	return Key{Name: constants.QueryCompletions, Param: habitID}
}

func ProfileKey() Key {
	return Key{Name: constants.QueryProfile}
}

func DisplayNameKey() Key {
	return Key{Name: constants.QueryDisplayName}
}

func RoleKey() Key {
	return Key{Name: constants.QueryRole}
}

func AdminKey() Key {
	return Key{Name: constants.QueryIsAdmin}
}

func UserProfileKey(principal string) Key {
	return Key{Name: constants.QueryUserProfile, Param: principal}
}
