package globals

var (
	// JwtSecret is set from config at startup; tests assign it directly.
	JwtSecret = []byte("foodbridge-dev-secret")
)

// Context keys
type ContextKey string

const RoleKey ContextKey = "role"
const UserIDKey ContextKey = "userId"
const EmailKey ContextKey = "email"
