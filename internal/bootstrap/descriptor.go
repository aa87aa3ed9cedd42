package bootstrap

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPort is used when the URL carries no port.
const DefaultPort = 5432

var (
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrEmptyHost         = errors.New("URL has no host")
	ErrEmptyDatabaseName = errors.New("URL has no database name")

	ErrDatabaseNameTooLong = fmt.Errorf("database name longer than %d bytes", maxIdentifierLen)
	ErrDatabaseNameNUL     = errors.New("database name contains a NUL byte")
)

// maxIdentifierLen is NAMEDATALEN-1; the server truncates longer names.
const maxIdentifierLen = 63

// secretOptions are masked by Redacted.
var secretOptions = []string{"sslpassword"}

// connOptions are the query parameters forwarded to the admin connection.
// Anything else in the query string is ignored.
var connOptions = []string{
	"sslmode",
	"sslcert",
	"sslkey",
	"sslrootcert",
	"sslpassword",
	"sslsni",
	"application_name",
}

// Descriptor holds the connection parameters parsed from a database URL.
type Descriptor struct {
	User        string
	Password    string
	HasPassword bool
	Host        string
	Port        int
	Database    string
	Options     map[string]string
}

// ParseURL decodes a postgres:// or postgresql:// URL into a Descriptor.
func ParseURL(raw string) (Descriptor, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Descriptor{}, fmt.Errorf("parse database URL: %w", err)
	}

	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return Descriptor{}, fmt.Errorf("%w %q (want postgres or postgresql)", ErrUnsupportedScheme, u.Scheme)
	}

	d := Descriptor{
		Host:     u.Hostname(),
		Port:     DefaultPort,
		Database: strings.TrimLeft(u.Path, "/"),
	}

	if u.User != nil {
		d.User = u.User.Username()
		d.Password, d.HasPassword = u.User.Password()
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return Descriptor{}, fmt.Errorf("invalid port %q: must be between 1 and 65535", p)
		}
		d.Port = port
	}

	if d.Host == "" {
		return Descriptor{}, ErrEmptyHost
	}
	if d.Database == "" {
		return Descriptor{}, ErrEmptyDatabaseName
	}
	if len(d.Database) > maxIdentifierLen {
		return Descriptor{}, fmt.Errorf("%w (got %d)", ErrDatabaseNameTooLong, len(d.Database))
	}
	if strings.ContainsRune(d.Database, 0) {
		return Descriptor{}, ErrDatabaseNameNUL
	}

	q := u.Query()
	for _, key := range connOptions {
		if v := q.Get(key); v != "" {
			if d.Options == nil {
				d.Options = make(map[string]string)
			}
			d.Options[key] = v
		}
	}

	return d, nil
}

// Address returns host:port, bracketing IPv6 literals.
func (d Descriptor) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// AdminURL renders a connection URL for adminDB on the same server,
// keeping the credentials and forwarded options of d.
func (d Descriptor) AdminURL(adminDB string) string {
	return d.url(adminDB).String()
}

// Redacted renders the target database URL with the password and any
// secret options masked.
func (d Descriptor) Redacted() string {
	u := d.url(d.Database)
	q := u.Query()
	for _, key := range secretOptions {
		if q.Has(key) {
			q.Set(key, "xxxxx")
		}
	}
	u.RawQuery = q.Encode()
	return u.Redacted()
}

func (d Descriptor) url(database string) *url.URL {
	u := &url.URL{
		Scheme: "postgres",
		Host:   d.Address(),
		Path:   "/" + database,
	}

	switch {
	case d.HasPassword:
		u.User = url.UserPassword(d.User, d.Password)
	case d.User != "":
		u.User = url.User(d.User)
	}

	if len(d.Options) > 0 {
		q := url.Values{}
		for k, v := range d.Options {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u
}
