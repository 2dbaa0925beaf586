package config

// ClientConfig is everything a VisaDirectClient needs at construction
// time: transport identity, the registry/policy file locations, and the
// optional durable-store backend. toml tags let an operator check in a
// config.toml; env tags let a deployment override individual fields
// without touching the file (§6).
type ClientConfig struct {
	Transport struct {
		BaseURL        string `toml:"base_url" env:"VISA_BASE_URL"`
		JWKSURL        string `toml:"jwks_url" env:"VISA_JWKS_URL"`
		CertPath       string `toml:"cert_path" env:"VISA_CERT_PATH"`
		KeyPath        string `toml:"key_path" env:"VISA_KEY_PATH"`
		CAPath         string `toml:"ca_path" env:"VISA_CA_PATH"`
		EndpointsPath  string `toml:"endpoints_path" env:"VISA_ENDPOINTS_PATH" env-default:"config/endpoints.json"`
	} `toml:"transport"`

	Originator struct {
		ID string `toml:"id" env:"VISA_ORIGINATOR_ID"`
	} `toml:"originator"`

	Environment string `toml:"environment" env:"SDK_ENV" env-default:"development"`

	Store struct {
		RedisURL          string `toml:"redis_url" env:"VISA_REDIS_URL"`
		DynamoTablePrefix string `toml:"dynamo_table_prefix" env:"VISA_DYNAMO_TABLE_PREFIX"`
		DatabaseURL       string `toml:"database_url" env:"VISA_DATABASE_URL"`
	} `toml:"store"`

	Credentials struct {
		UserID       string `toml:"user_id" env:"VISA_USER_ID"`
		Password     string `toml:"password" env:"VISA_PASSWORD"`
		APIKey       string `toml:"api_key" env:"VISA_API_KEY"`
		SharedSecret string `toml:"shared_secret" env:"VISA_SHARED_SECRET"`
	} `toml:"-"`
}

// Production reports whether the client should run with a fail-closed
// posture (MLE key unavailability is an error rather than a plaintext
// fallback). The client certificate is presented whenever its paths are
// configured, in either mode; production does not require one.
func (c ClientConfig) Production() bool {
	return c.Environment == "production"
}
