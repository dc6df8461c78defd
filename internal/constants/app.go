package constants

// Application Information
const (
	AppName    = "Contacts Service"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// Cache Key Prefixes
const (
	CacheKeyPrefix   = "contacts:"
	CacheKeyContacts = CacheKeyPrefix + "list:"
	CacheKeyRate     = CacheKeyPrefix + "rate:"
)

// Token scopes carried in the "scope" claim. An access-scoped token is never
// accepted where a refresh-scoped token is required, and vice versa.
const (
	ScopeAccessToken  = "access_token"
	ScopeRefreshToken = "refresh_token"
)
