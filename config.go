package authflow

import (
	"time"

	"github.com/dmitrymomot/authflow/pkg/authfetch"
	"github.com/dmitrymomot/authflow/pkg/config"
	"github.com/dmitrymomot/authflow/pkg/credential"
	"github.com/dmitrymomot/authflow/pkg/guard"
)

// Config holds the auth client settings.
type Config struct {
	APIBase        string        `env:"AUTH_API_BASE" envDefault:"http://localhost:8000"`
	CSRFCookie     string        `env:"AUTH_CSRF_COOKIE" envDefault:"csrftoken"`
	SessionCookie  string        `env:"AUTH_SESSION_COOKIE" envDefault:"sessionid"`
	CSRFHeader     string        `env:"AUTH_CSRF_HEADER" envDefault:"X-CSRFToken"`
	FlowPathPrefix string        `env:"AUTH_FLOW_PATH_PREFIX" envDefault:"/_allauth/"`
	LoginPath      string        `env:"AUTH_LOGIN_PATH" envDefault:"/auth/login"`
	HomePath       string        `env:"AUTH_HOME_PATH" envDefault:"/"`
	RequestTimeout time.Duration `env:"AUTH_REQUEST_TIMEOUT" envDefault:"10s"`
	ServerWait     time.Duration `env:"AUTH_SERVER_WAIT" envDefault:"500ms"`
	ClientWait     time.Duration `env:"AUTH_CLIENT_WAIT" envDefault:"3s"`
	// RelayCookies forwards backend Set-Cookie headers of a server render to
	// the browser response.
	RelayCookies bool `env:"AUTH_RELAY_COOKIES" envDefault:"true"`
}

// DefaultConfig returns the configuration used when no environment is set.
func DefaultConfig() Config {
	return Config{
		APIBase:        "http://localhost:8000",
		CSRFCookie:     credential.DefaultCSRFCookie,
		SessionCookie:  credential.DefaultSessionCookie,
		CSRFHeader:     authfetch.DefaultCSRFHeader,
		FlowPathPrefix: authfetch.DefaultFlowPathPrefix,
		LoginPath:      guard.DefaultLoginPath,
		HomePath:       guard.DefaultHomePath,
		RequestTimeout: 10 * time.Second,
		ServerWait:     guard.DefaultServerWait,
		ClientWait:     guard.DefaultClientWait,
		RelayCookies:   true,
	}
}

// LoadConfig reads Config from the environment and the default .env file.
func LoadConfig(opts ...config.Option) (Config, error) {
	var cfg Config
	if err := config.Load(&cfg, opts...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) cookieNames() credential.Names {
	return credential.Names{CSRF: c.CSRFCookie, Session: c.SessionCookie}
}
