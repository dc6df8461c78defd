package constants

// HTTP Header Names
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderUserAgent     = "User-Agent"
	HeaderXRequestID    = "X-Request-ID"
)

// HTTP Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
)

// Authorization scheme for bearer tokens
const (
	BearerScheme = "Bearer"
)
