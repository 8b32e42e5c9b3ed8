package campus

// Campus is an administrative partition that scopes data visibility.
// Reference data provisioned externally; read-only to this service.
type Campus struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Active bool   `json:"active"`
}
