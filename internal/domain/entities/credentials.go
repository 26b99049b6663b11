package entities

// Credentials authenticate against the asset and search APIs
type Credentials struct {
	User     string
	Password string
}
