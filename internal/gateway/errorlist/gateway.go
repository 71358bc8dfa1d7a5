package errorlist

// GatewaySource is the reserved source holding the gateway's own failure
// codes. Mappings cannot override it; their errorSource only scopes the
// codes referenced by validator verdicts and backend errors.
const GatewaySource = "gateway"

// Gateway failure code names.
const (
	CodeRequestOptionNotFound      = "RequestOptionNotFound"
	CodeRequestPreValidationError  = "RequestPreValidationError"
	CodeRequestPostValidationError = "RequestPostValidationError"
	CodeRequestTimeoutOnServer     = "RequestTimeoutOnServer"
)

// RegisterGatewayErrors installs the built-in failure codes and returns
// their builder.
func RegisterGatewayErrors(m *Manager) *Builder {
	return m.Register(GatewaySource, RegisterSpec{
		ErrorCodes: map[string]Descriptor{
			CodeRequestOptionNotFound: {
				Message:    "Required request options not found",
				ReturnCode: 5001,
				StatusCode: 400,
			},
			CodeRequestPreValidationError: {
				Message:    "The request is not valid",
				ReturnCode: 5002,
				StatusCode: 400,
			},
			CodeRequestPostValidationError: {
				Message:    "The request data is not valid",
				ReturnCode: 5003,
				StatusCode: 400,
			},
			CodeRequestTimeoutOnServer: {
				Message:    "Service request has been timeout",
				ReturnCode: 5000,
				StatusCode: 408,
			},
		},
	})
}
