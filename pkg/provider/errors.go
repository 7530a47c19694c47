package provider

// Typed failures of Authenticate. Match with errors.Is; transport errors are
// returned as the transport produced them and match none of these.
var (
	ErrURLNotProvided     = errorString("token generation url not provided; set token.url or TOKEN_GENERATION_URL")
	ErrHeaderManipulation = errorString("token generation headers could not be built")
	ErrResponseMapping    = errorString("token response could not be mapped into the response shape")
)

type errorString string

func (e errorString) Error() string { return string(e) }
