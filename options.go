package ftplist

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/text/encoding"

	"github.com/gonzalop/ftplist/internal/ratelimit"
	"github.com/gonzalop/ftplist/listing"
)

// Option is a functional option for configuring an FTP client.
type Option func(*Client) error

// WithTimeout sets the timeout for connection and operations.
// This applies to both the initial connection and subsequent read/write operations.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.timeout = timeout
		return nil
	}
}

// WithExplicitTLS enables explicit TLS mode (AUTH TLS).
// The client connects on the standard FTP port (21) and upgrades to TLS
// using the AUTH TLS command.
//
// A ClientSessionCache is added if not present so that data connections
// can resume the control connection's TLS session.
func WithExplicitTLS(config *tls.Config) Option {
	return func(c *Client) error {
		if c.tlsMode == tlsModeImplicit {
			return fmt.Errorf("explicit TLS cannot be combined with implicit TLS")
		}
		c.tlsConfig = withSessionCache(config)
		c.tlsMode = tlsModeExplicit
		return nil
	}
}

// WithImplicitTLS enables implicit TLS mode.
// The client connects directly with TLS, typically on port 990.
func WithImplicitTLS(config *tls.Config) Option {
	return func(c *Client) error {
		if c.tlsMode == tlsModeExplicit {
			return fmt.Errorf("implicit TLS cannot be combined with explicit TLS")
		}
		c.tlsConfig = withSessionCache(config)
		c.tlsMode = tlsModeImplicit
		return nil
	}
}

func withSessionCache(config *tls.Config) *tls.Config {
	if config == nil {
		config = &tls.Config{}
	}
	if config.ClientSessionCache == nil {
		config.ClientSessionCache = tls.NewLRUClientSessionCache(0)
	}
	return config
}

// WithLogger enables debug logging using the provided logger.
// Commands, responses and the raw text of every directory listing are
// logged at debug level, which is the first thing to look at when a
// listing cannot be parsed.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	client, _ := ftplist.Dial("ftp.example.com:21", ftplist.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return fmt.Errorf("logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithDialer sets a custom net.Dialer for establishing connections.
func WithDialer(dialer *net.Dialer) Option {
	return func(c *Client) error {
		c.dialer = dialer
		return nil
	}
}

// WithDisableEPSV forces PASV for data connections.
// By default, the client tries EPSV before falling back to PASV.
func WithDisableEPSV() Option {
	return func(c *Client) error {
		c.disableEPSV = true
		return nil
	}
}

// WithDisableMLSD makes List always use LIST, even when the server
// advertises MLST support.
func WithDisableMLSD() Option {
	return func(c *Client) error {
		c.disableMLSD = true
		return nil
	}
}

// WithRecognizer adds a custom listing format recognizer.
// Custom recognizers are probed before the built-in ones (DOS, Unix, EPLF,
// MLSD), in the order they were added.
func WithRecognizer(r listing.Recognizer) Option {
	return func(c *Client) error {
		if r == nil {
			return fmt.Errorf("recognizer must not be nil")
		}
		c.recognizers = append(c.recognizers, r)
		return nil
	}
}

// WithListParser replaces the listing parser used by List.
// It cannot be combined with WithRecognizer.
func WithListParser(p *listing.Parser) Option {
	return func(c *Client) error {
		if p == nil {
			return fmt.Errorf("list parser must not be nil")
		}
		c.listParser = p
		return nil
	}
}

// WithEncoding sets the character encoding of file names in listings.
// Listing bodies are decoded to UTF-8 before parsing. The default assumes
// the server already sends UTF-8.
//
// Example:
//
//	client, _ := ftplist.Dial("ftp.example.com:21",
//	    ftplist.WithEncoding(charmap.ISO8859_1),
//	)
func WithEncoding(enc encoding.Encoding) Option {
	return func(c *Client) error {
		c.encoding = enc
		return nil
	}
}

// WithMaxListingSize limits the number of bytes read for one directory
// listing. Larger listings fail with ErrListingTooLarge. Zero means no limit.
func WithMaxListingSize(n int64) Option {
	return func(c *Client) error {
		if n < 0 {
			return fmt.Errorf("invalid max listing size: %d", n)
		}
		c.maxListingSize = n
		return nil
	}
}

// WithBandwidthLimit limits data connection reads to bytesPerSecond.
// Zero or a negative value disables the limit.
func WithBandwidthLimit(bytesPerSecond int64) Option {
	return func(c *Client) error {
		c.limiter = ratelimit.New(bytesPerSecond)
		return nil
	}
}

// tlsMode represents the TLS mode for the connection.
type tlsMode int

const (
	tlsModeNone tlsMode = iota
	tlsModeExplicit
	tlsModeImplicit
)

func (m tlsMode) String() string {
	switch m {
	case tlsModeExplicit:
		return "explicit"
	case tlsModeImplicit:
		return "implicit"
	default:
		return "none"
	}
}
