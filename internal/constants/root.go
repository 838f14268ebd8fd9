package constants

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName             = "sutra"
	DefaultKeyringUser  = "database-connection"
	IdentityKeyringUser = "identity"
	DefaultConfigPath   = "~/.config/sutra/sutra.db"
	Version             = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// ConnectionEnvVar overrides --config when set
	ConnectionEnvVar = "SUTRA_DB_CONNECTION"

	// AnonymousPrincipal is the principal used by a signed-out caller
	AnonymousPrincipal = "2vxsx-fae"

	// MaxHabitNameLen is the UI limit on habit names, in characters
	MaxHabitNameLen = 50

	// Query key names
	QueryHabits      = "habits"
	QueryCompletions = "completions"
	QueryProfile     = "currentUserProfile"
	QueryDisplayName = "displayName"
	QueryRole        = "callerUserRole"
	QueryIsAdmin     = "isCallerAdmin"
	QueryUserProfile = "userProfile"
)

// Session States
const (
	StateLoading SessionState = iota
	StateSignedOut
	StateHabits
	StateHistory
	StateAddHabit
	StateEditHabit
	StateEditDisplayName
	StateConfirmDelete
)

// PresetColors are the colors offered when creating or editing a habit.
var PresetColors = []string{
	"#EF4444", // Red
	"#F97316", // Orange
	"#F59E0B", // Amber
	"#EAB308", // Yellow
	"#84CC16", // Lime
	"#22C55E", // Green
	"#10B981", // Emerald
	"#06B6D4", // Cyan
	"#0EA5E9", // Sky
	"#3B82F6", // Blue
	"#6366F1", // Indigo
	"#8B5CF6", // Violet
	"#A855F7", // Purple
	"#D946EF", // Fuchsia
	"#EC4899", // Pink
	"#F43F5E", // Rose
}
