package server

type ServiceConfig struct {
	// Bind is the listen address, defaults to localhost.
	Bind string

	// Port serves the gateway HTTP API. Defaults to 7077.
	Port uint

	// ChainId is the chain the gateway signs re-encryption domains for. It
	// must match the chain id of every client engine.
	ChainId uint64

	// Persistence type, currently supporting "syncmap", "file", "badgerdb"
	// and "s3". Default to "syncmap". The network key lives in the same store,
	// so only persistent types keep ciphertexts decryptable across restarts.
	PersistenceType string

	// Persistence options as JSON string. See store implementations for
	// details.
	PersistenceOptions string

	// AllowedOrigins for CORS. Empty allows all origins.
	AllowedOrigins []string
}

const (
	defaultBind = "localhost"
	defaultPort = 7077
)

func (c ServiceConfig) GetBind() string {
	if c.Bind == "" {
		return defaultBind
	}
	return c.Bind
}

func (c ServiceConfig) GetPort() uint {
	if c.Port == 0 {
		return defaultPort
	}
	return c.Port
}
