// Package snowflake provides the Snowflake session backend on top of the
// vendor driver.
//
// Import this package with a blank identifier to register the backend:
//
//	import _ "github.com/leapstack-labs/leapdata/pkg/backends/snowflake"
package snowflake

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"database/sql"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/snowflakedb/gosnowflake"

	"github.com/leapstack-labs/leapdata/pkg/frame"
	"github.com/leapstack-labs/leapdata/pkg/session"
)

// Name is the backend name used in connection configurations.
const Name = "snowflake"

// privateKeyParam names the key file used by snowflake_jwt authentication.
const privateKeyParam = "private_key_path"

// Dialect is the Snowflake session dialect.
var Dialect = &session.Dialect{
	Name:          Name,
	DefaultSchema: "PUBLIC",
	Placeholder:   session.PlaceholderQuestion,
	Normalization: session.NormUppercase,
	Quote:         `"`,
	Types: map[frame.Kind]string{
		frame.KindBool:   "BOOLEAN",
		frame.KindInt:    "NUMBER(38,0)",
		frame.KindFloat:  "FLOAT",
		frame.KindString: "VARCHAR",
		frame.KindTime:   "TIMESTAMP_NTZ",
		frame.KindBytes:  "BINARY",
	},
	TableTypes: map[string]string{
		"temp":      "TEMPORARY",
		"temporary": "TEMPORARY",
		"transient": "TRANSIENT",
	},
	CreateOrReplace:           true,
	CrossDatabase:             true,
	DatabaseInformationSchema: true,
	TruncateStatement:         "TRUNCATE TABLE",
}

func init() {
	session.RegisterBackend(&session.Backend{Name: Name, Dialect: Dialect, Open: Open})
}

// Open connects to the account named by cfg.
func Open(ctx context.Context, cfg session.ConnectionConfig) (*sql.DB, error) {
	sfCfg, err := Config(cfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(gosnowflake.NewConnector(gosnowflake.SnowflakeDriver{}, *sfCfg))
	return session.OpenDB(ctx, db, Name)
}

// Config translates a connection configuration into a driver configuration.
func Config(cfg session.ConnectionConfig) (*gosnowflake.Config, error) {
	if cfg.Account == "" {
		return nil, errors.New("snowflake: account is required")
	}

	sfCfg := &gosnowflake.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Token:     cfg.Token,
		Role:      cfg.Role,
		Warehouse: cfg.Warehouse,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Host:      cfg.Host,
		Port:      cfg.Port,
	}
	if cfg.Host != "" {
		sfCfg.Protocol = "https"
	}

	if err := setAuthenticator(sfCfg, cfg.Authenticator); err != nil {
		return nil, err
	}

	params := cfg.ParamStrings()
	if path, ok := params[privateKeyParam]; ok {
		delete(params, privateKeyParam)
		key, err := readPrivateKey(path)
		if err != nil {
			return nil, err
		}
		sfCfg.PrivateKey = key
	}
	if len(params) > 0 {
		sfCfg.Params = make(map[string]*string, len(params))
		for k, v := range params {
			sfCfg.Params[k] = &v
		}
	}

	if err := validate(sfCfg); err != nil {
		return nil, err
	}
	return sfCfg, nil
}

// setAuthenticator maps authenticator names as written in credentials files.
// Okta is selected by giving the Okta URL itself.
func setAuthenticator(sfCfg *gosnowflake.Config, name string) error {
	switch lower := strings.ToLower(name); {
	case lower == "" || lower == "snowflake":
		sfCfg.Authenticator = gosnowflake.AuthTypeSnowflake
	case lower == "externalbrowser":
		sfCfg.Authenticator = gosnowflake.AuthTypeExternalBrowser
	case lower == "oauth":
		sfCfg.Authenticator = gosnowflake.AuthTypeOAuth
	case lower == "snowflake_jwt":
		sfCfg.Authenticator = gosnowflake.AuthTypeJwt
	case lower == "username_password_mfa":
		sfCfg.Authenticator = gosnowflake.AuthTypeUsernamePasswordMFA
	case strings.HasPrefix(lower, "https://"):
		u, err := url.Parse(name)
		if err != nil {
			return fmt.Errorf("snowflake: invalid okta url: %w", err)
		}
		sfCfg.Authenticator = gosnowflake.AuthTypeOkta
		sfCfg.OktaURL = u
	default:
		return fmt.Errorf("snowflake: unsupported authenticator %q", name)
	}
	return nil
}

func validate(c *gosnowflake.Config) error {
	switch c.Authenticator {
	case gosnowflake.AuthTypeOAuth:
		if c.Token == "" {
			return errors.New("snowflake: token is required for oauth authentication")
		}
		return nil
	case gosnowflake.AuthTypeJwt:
		if c.PrivateKey == nil {
			return fmt.Errorf("snowflake: %s is required for snowflake_jwt authentication", privateKeyParam)
		}
	case gosnowflake.AuthTypeSnowflake, gosnowflake.AuthTypeUsernamePasswordMFA, gosnowflake.AuthTypeOkta:
		if c.Password == "" {
			return errors.New("snowflake: password is required")
		}
	}
	if c.User == "" {
		return errors.New("snowflake: user is required")
	}
	return nil
}

// readPrivateKey reads an unencrypted PKCS#8 RSA key in PEM form.
func readPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snowflake: failed to read private key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("snowflake: %s does not contain a PEM block", path)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("snowflake: failed to parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("snowflake: private key is %T, expected RSA", parsed)
	}
	return key, nil
}
