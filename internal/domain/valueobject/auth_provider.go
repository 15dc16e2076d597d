package valueobject

// AuthProvider names how a user proved their identity.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "LOCAL"
	ProviderGoogle AuthProvider = "GOOGLE"
)

func (p AuthProvider) String() string { return string(p) }

func (p AuthProvider) IsExternal() bool { return p != ProviderLocal }
