package ftplist

import (
	"crypto/tls"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"
)

var (
	// 227 Entering Passive Mode (h1,h2,h3,h4,p1,p2)
	pasvRegex = regexp.MustCompile(`(\d{1,3}),(\d{1,3}),(\d{1,3}),(\d{1,3}),(\d{1,3}),(\d{1,3})`)

	// 229 Entering Extended Passive Mode (|||port|)
	epsvRegex = regexp.MustCompile(`\((.)(.)(.)(\d+)(.)\)`)
)

// parsePASV returns the data address announced by a PASV reply.
// "Entering Passive Mode (192,168,1,1,195,149)" yields "192.168.1.1:50069".
func parsePASV(message string) (string, error) {
	m := pasvRegex.FindStringSubmatch(message)
	if m == nil {
		return "", fmt.Errorf("invalid PASV response: %s", message)
	}

	var n [6]int
	for i := range n {
		v, err := strconv.Atoi(m[i+1])
		if err != nil || v > 255 {
			return "", fmt.Errorf("invalid PASV response: %s", message)
		}
		n[i] = v
	}

	host := net.IPv4(byte(n[0]), byte(n[1]), byte(n[2]), byte(n[3])).String()
	return net.JoinHostPort(host, strconv.Itoa(n[4]<<8|n[5])), nil
}

// parseEPSV returns the port announced by an EPSV reply. The three
// delimiters before the port and the one after it must be the same
// character, per RFC 2428.
func parseEPSV(message string) (string, error) {
	m := epsvRegex.FindStringSubmatch(message)
	if m == nil || m[1] != m[2] || m[2] != m[3] || m[3] != m[5] {
		return "", fmt.Errorf("invalid EPSV response: %s", message)
	}

	port, err := strconv.Atoi(m[4])
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid EPSV port: %s", m[4])
	}
	return m[4], nil
}

// resolveDataAddr replaces an unroutable PASV host (0.0.0.0) with the host
// of the control connection.
func resolveDataAddr(pasvAddr, controlHost string) string {
	host, port, err := net.SplitHostPort(pasvAddr)
	if err != nil {
		return pasvAddr
	}
	if host == "0.0.0.0" {
		return net.JoinHostPort(controlHost, port)
	}
	return pasvAddr
}

// passiveAddr negotiates a passive data address, trying EPSV first and
// falling back to PASV. After a 502 reply EPSV is not tried again.
func (c *Client) passiveAddr() (string, error) {
	if !c.disableEPSV {
		resp, err := c.sendCommand("EPSV")
		if err != nil {
			return "", fmt.Errorf("EPSV failed: %w", err)
		}
		switch {
		case resp.Code == 229:
			port, err := parseEPSV(resp.Message)
			if err == nil {
				return net.JoinHostPort(c.host, port), nil
			}
			c.logger.Debug("ignoring EPSV reply", "error", err)
		case resp.Code == 502:
			c.disableEPSV = true
		}
	}

	resp, err := c.expectCode(227, "PASV")
	if err != nil {
		return "", err
	}

	addr, err := parsePASV(resp.Message)
	if err != nil {
		return "", err
	}
	return resolveDataAddr(addr, c.host), nil
}

// openDataConn opens a passive data connection. If TLS is enabled, the data
// connection uses TLS with session reuse.
func (c *Client) openDataConn() (net.Conn, error) {
	addr, err := c.passiveAddr()
	if err != nil {
		return nil, err
	}

	c.logger.Debug("opening data connection", "addr", addr)
	dataConn, err := c.dialer.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to data port: %w", err)
	}

	if c.tlsConfig != nil {
		tlsConn := tls.Client(dataConn, c.tlsConfig)
		if err := tlsConn.Handshake(); err != nil {
			dataConn.Close()
			return nil, fmt.Errorf("data connection TLS handshake failed: %w", err)
		}
		dataConn = tlsConn
	}

	if c.timeout > 0 {
		return &deadlineConn{Conn: dataConn, timeout: c.timeout}, nil
	}
	return dataConn, nil
}

// cmdDataConn opens a data connection and sends cmd over the control
// connection. It returns the preliminary reply together with the data
// connection; the caller reads the data and then calls finishDataConn.
func (c *Client) cmdDataConn(cmd string, args ...string) (*Response, net.Conn, error) {
	dataConn, err := c.openDataConn()
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	c.activeDataConn = dataConn
	c.mu.Unlock()

	resp, err := c.sendCommand(cmd, args...)
	if err != nil {
		c.dropDataConn(dataConn)
		return nil, nil, err
	}

	// 1xx: transfer starting, 2xx: already complete
	if !resp.Is1xx() && !resp.Is2xx() {
		c.dropDataConn(dataConn)
		return resp, nil, &ProtocolError{
			Command:  cmd,
			Response: resp.Message,
			Code:     resp.Code,
		}
	}

	return resp, dataConn, nil
}

func (c *Client) dropDataConn(dataConn net.Conn) {
	dataConn.Close()
	c.mu.Lock()
	c.activeDataConn = nil
	c.mu.Unlock()
}

// finishDataConn closes the data connection and, unless the server already
// sent its completion reply with the preliminary one, reads it.
func (c *Client) finishDataConn(cmd string, prelim *Response, dataConn net.Conn) error {
	c.dropDataConn(dataConn)

	if !prelim.Is1xx() {
		return nil
	}

	resp, err := c.readResponse()
	if err != nil {
		return fmt.Errorf("failed to read completion response: %w", err)
	}

	if !resp.Is2xx() {
		return &ProtocolError{
			Command:  cmd,
			Response: resp.Message,
			Code:     resp.Code,
		}
	}
	return nil
}

// deadlineConn wraps a net.Conn and sets a read/write deadline before every operation.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (n int, err error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (n int, err error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}
