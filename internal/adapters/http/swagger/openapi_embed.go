package swagger

import _ "embed"

// OpenAPI contains the embedded OpenAPI YAML contract.
//
//go:embed openapi.yaml
var OpenAPI []byte
